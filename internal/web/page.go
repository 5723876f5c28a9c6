package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-predict/internal/catalog"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var assetsFS embed.FS

// page is the rendered prediction page. The catalog never changes at
// runtime, so the HTML is rendered once.
type page struct {
	html []byte
}

func newPage(cat *catalog.Catalog) (*page, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cat); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return &page{html: buf.Bytes()}, nil
}

func staticFS() fs.FS {
	sub, err := fs.Sub(assetsFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(s.page.html); err != nil {
		slog.Debug("failed to write page", "error", err)
	}
}
