// Package web serves the prediction page, its JSON API, the websocket
// progress stream, spreadsheet export and the raw topic documents.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/predict"
	"github.com/p-n-ai/pai-predict/internal/progress"
	"github.com/p-n-ai/pai-predict/internal/selection"
)

const readyTimeout = 2 * time.Second

// Checker is a dependency whose health gates readiness.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the web server.
type Config struct {
	Catalog  *catalog.Catalog
	Store    selection.Store
	Source   documents.Source
	Progress *progress.Simulator
	Checkers []Checker
}

// Server holds the HTTP handlers.
type Server struct {
	catalog   *catalog.Catalog
	store     selection.Store
	source    documents.Source
	predictor *predict.Service
	progress  *progress.Simulator
	checkers  []Checker
	page      *page
	now       func() time.Time
}

// New creates a server. A nil Store uses an in-memory store and a nil
// Progress uses the page's default timings.
func New(cfg Config) (*Server, error) {
	store := cfg.Store
	if store == nil {
		store = selection.NewMemoryStore(0)
	}
	sim := cfg.Progress
	if sim == nil {
		sim = progress.New(progress.DefaultInterval, progress.DefaultMaxStep, progress.DefaultSettle)
	}
	pg, err := newPage(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return &Server{
		catalog:   cfg.Catalog,
		store:     store,
		source:    cfg.Source,
		predictor: predict.NewService(predict.ServiceConfig{Catalog: cfg.Catalog, Source: cfg.Source}),
		progress:  sim,
		checkers:  cfg.Checkers,
		page:      pg,
		now:       time.Now,
	}, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS())))
	mux.HandleFunc("GET /topics/{name}", s.handleTopicDocument)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/mode", s.handleSetMode)
	mux.HandleFunc("POST /api/sessions/{id}/predict", s.handlePredict)
	mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /api/sessions/{id}/export.xlsx", s.handleExport)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := make(map[string]string)
	for _, c := range s.checkers {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "dependency", c.Name(), "error", err)
			failed[c.Name()] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": failed,
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
