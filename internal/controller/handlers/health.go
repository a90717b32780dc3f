package handlers

import "net/http"

// Healthz is a liveness probe. It returns 200 OK if the server is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz is a readiness probe. It checks if the service is ready to
// accept traffic (e.g., the database connection is alive).
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.Pinger.Ping(r.Context()); err != nil {
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
