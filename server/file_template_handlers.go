package server

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	templateForward = "forward.html"
	templateResult  = "result.html"
)

// ParseTemplates parses every page in the embedded templates folder
func ParseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFiles, "templates/*.html")
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.requestLogger(r).Err(err).Str("template", name).Msg("Failed to render template")
	}
}
