package handlers

import (
	"encoding/json"
	"net/http"

	"fletcher/pkg/api"
)

// Authenticate handles POST /api/authenticate. No role is required: any
// caller with a valid service/key pair may exchange it for a bearer
// token (spec.md §6).
func (h *Handlers) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req api.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	authenticated, err := h.Auth.Authenticate(req.Service, req.Key)
	if err != nil {
		h.httpError(w, err)
		return
	}

	roles := make([]string, len(authenticated.Roles))
	for i, role := range authenticated.Roles {
		roles[i] = string(role)
	}

	h.respondJSON(w, http.StatusOK, api.AuthenticateResponse{
		AccessToken: authenticated.AccessToken,
		Issued:      authenticated.Issued,
		IssuedBy:    authenticated.IssuedBy,
		Expires:     authenticated.Expires,
		Roles:       roles,
		Service:     authenticated.Service,
		TokenType:   authenticated.TokenType,
		TTL:         authenticated.TTL,
	})
}
