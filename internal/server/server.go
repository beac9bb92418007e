// Package server exposes the atomspace to the external task system over
// HTTP: stimulation, cycle ticks, focus and priority queries, and the
// textual export.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/o9nn/opencoq-sub001/internal/ecan"
)

// Server is the atomspaced HTTP API server.
type Server struct {
	space   *ecan.Space
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server around the given space.
func New(space *ecan.Space, version string) *Server {
	s := &Server{
		space:   space,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/nodes", s.handleAddNode)
		r.Get("/nodes", s.handleFindNodes)
		r.Get("/nodes/{id}", s.handleGetNode)
		r.Delete("/nodes/{id}", s.handleRemoveNode)
		r.Put("/nodes/{id}/truth", s.handleNodeTruth)
		r.Get("/nodes/{id}/incoming", s.handleIncoming)
		r.Get("/nodes/{id}/outgoing", s.handleOutgoing)

		r.Post("/links", s.handleAddLink)
		r.Get("/links/{id}", s.handleGetLink)
		r.Delete("/links/{id}", s.handleRemoveLink)
		r.Put("/links/{id}/truth", s.handleLinkTruth)

		r.Post("/stimulate", s.handleStimulate)
		r.Post("/tick", s.handleTick)
		r.Get("/bank", s.handleBank)

		r.Get("/focus", s.handleFocus)
		r.Get("/focus/{id}", s.handleIsInFocus)
		r.Post("/prioritize", s.handlePrioritize)

		r.Get("/export", s.handleExport)

		r.Get("/tensor/stats", s.handleTensorStats)
		r.Post("/tensor/gradients", s.handleTensorGradients)
		r.Post("/tensor/optimize", s.handleTensorOptimize)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"nodes":   s.space.NodeCount(),
		"links":   s.space.LinkCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
