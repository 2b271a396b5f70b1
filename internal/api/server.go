// Package api exposes the status HTTP interface for the long-running serve
// mode. It is read-only: lifecycle passes are driven by the scheduler, never
// by HTTP callers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/promopipe/promokeeper/internal/batch"
)

// Server wires HTTP handlers to the pass report store and the directory tree.
type Server struct {
	router      chi.Router
	store       *Store
	outputRoot  string
	archiveRoot string
	logger      *zap.Logger
}

// NewServer constructs a Server with routes registered.
func NewServer(store *Store, outputRoot, archiveRoot string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:       store,
		outputRoot:  outputRoot,
		archiveRoot: archiveRoot,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/summary", s.getSummary)
		r.Get("/batches", s.getBatches)
	})
	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The filesystem is the only dependency; readiness equals liveness.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getSummary(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.store.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no lifecycle pass has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// batchView is the JSON shape for one inventory entry.
type batchView struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) getBatches(w http.ResponseWriter, _ *http.Request) {
	live, err := batch.ListLive(s.outputRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	archived, err := batch.ListArchive(s.archiveRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]batchView, 0, len(live)+len(archived))
	for _, b := range append(live, archived...) {
		views = append(views, batchView{
			Name:      b.Name,
			State:     b.State.String(),
			CreatedAt: b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": views})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
