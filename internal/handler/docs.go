package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"net/http"
)

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>SwaggerUIBundle({url: "{{.DocumentPath}}", dom_id: "#swagger-ui", docExpansion: "list"});</script>
</body>
</html>`))

// DocsHandler serves the embedded OpenAPI document and a Swagger UI page
// pointing at it.
type DocsHandler struct {
	document     []byte
	etag         string
	documentPath string
}

func NewDocsHandler(document []byte, documentPath string) *DocsHandler {
	sum := sha256.Sum256(document)
	return &DocsHandler{
		document:     document,
		etag:         `"` + hex.EncodeToString(sum[:8]) + `"`,
		documentPath: documentPath,
	}
}

func (h *DocsHandler) Document(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(h.document)
}

func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	docsPage.Execute(w, struct{ Title, DocumentPath string }{"Audit Validator API", h.documentPath})
}
