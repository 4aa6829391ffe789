// Package server exposes the pipeline over HTTP: the cron/manual fill entry
// point and a health probe.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quadra-game/quadra/internal/pipeline"
	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

// Server handles HTTP requests for the pipeline fill endpoint.
type Server struct {
	service    *pipeline.Service
	configs    storage.PipelineConfigStore
	secret     string
	mux        *http.ServeMux
	httpServer *http.Server
}

// Config holds the server wiring.
type Config struct {
	Service *pipeline.Service
	Configs storage.PipelineConfigStore
	// Secret, when non-empty, requires "Authorization: Bearer <Secret>" on
	// the fill endpoint.
	Secret string
}

// New creates the server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{
		service: cfg.Service,
		configs: cfg.Configs,
		secret:  cfg.Secret,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/pipeline/fill", s.handleFill)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// Start starts the HTTP server on the given address and blocks.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a full window fill can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GenreOutcome is one genre's slot in the fill response.
type GenreOutcome struct {
	Success bool              `json:"success"`
	Result  *types.FillResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// FillResponse is the JSON body of the fill endpoint.
type FillResponse struct {
	Timestamp string                  `json:"timestamp"`
	Results   map[string]GenreOutcome `json:"results"`
}

// handleFill runs FillWindow for every enabled genre. GET serves the cron
// dispatcher; POST serves manual triggers. Genres run concurrently; they
// share nothing but the database.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed: use GET or POST")
		return
	}
	if s.secret != "" && r.Header.Get("Authorization") != "Bearer "+s.secret {
		s.writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return
	}

	configs, err := s.configs.ListEnabled(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load pipeline configs: "+err.Error())
		return
	}

	resp := FillResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   make(map[string]GenreOutcome, len(configs)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(r.Context())
	for _, cfg := range configs {
		g.Go(func() error {
			result, err := s.service.FillWindow(ctx, cfg, nil)
			outcome := GenreOutcome{Success: err == nil, Result: result}
			if err != nil {
				outcome.Error = err.Error()
			}
			mu.Lock()
			resp.Results[string(cfg.Genre)] = outcome
			mu.Unlock()
			return nil // one genre's failure must not cancel the others
		})
	}
	_ = g.Wait()

	status := http.StatusOK
	failures := 0
	for _, outcome := range resp.Results {
		if !outcome.Success {
			failures++
		}
	}
	if failures > 0 && failures < len(resp.Results) {
		status = http.StatusMultiStatus
	} else if failures > 0 {
		status = http.StatusInternalServerError
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
