package handlers

import (
	"embed"
	"net/http"
)

//go:embed openapi.yaml
var openAPISpec embed.FS

// Spec handles GET /spec, serving the embedded OpenAPI document.
func (h *Handlers) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	data, err := openAPISpec.ReadFile("openapi.yaml")
	if err != nil {
		h.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "spec unavailable"})
		return
	}
	w.Write(data)
}

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head><title>Fletcher API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>window.onload = () => SwaggerUIBundle({url: "/spec", dom_id: "#swagger-ui"})</script>
</body>
</html>`

// Swagger handles GET /swagger, serving a minimal Swagger UI page pointed
// at the /spec document.
func (h *Handlers) Swagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerUIPage))
}
