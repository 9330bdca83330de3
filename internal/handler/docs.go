package handler

import (
	_ "embed"
	"net/http"

	"go.uber.org/zap"
)

//go:embed openapi.yml
var openapiDoc []byte

// DocsHandler serves OpenAPI documentation
type DocsHandler struct {
	logger *zap.Logger
}

func NewDocsHandler(logger *zap.Logger) *DocsHandler {
	return &DocsHandler{logger: logger}
}

// ServeOpenAPI serves the embedded openapi.yml
func (h *DocsHandler) ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	h.write(w, "application/yaml", openapiDoc)
}

// ServeSwaggerUI serves a Swagger UI page pointing at /openapi.yml
func (h *DocsHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	h.write(w, "text/html; charset=utf-8", []byte(swaggerPage))
}

func (h *DocsHandler) write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write docs", zap.Error(err))
	}
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>PR Reviewer API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.10.3/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5.10.3/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({ url: "/openapi.yml", dom_id: '#swagger-ui' });
    };
  </script>
</body>
</html>`
