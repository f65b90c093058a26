package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GoPolymarket/polymarket-regime/internal/app"
	"github.com/GoPolymarket/polymarket-regime/internal/config"
	"github.com/GoPolymarket/polymarket-regime/internal/market"
)

// maxBodyBytes bounds POST /api/analyze request bodies.
const maxBodyBytes = 1 << 20

// Engine exposes the pipeline to the API layer.
type Engine interface {
	Analyze(ctx context.Context, req app.Request) (*app.Result, error)
	Events() []config.EventConfig
	Stats() map[string]interface{}
}

// Server is a lightweight HTTP API over the regime pipeline.
type Server struct {
	httpServer *http.Server
	engine     Engine
	validator  *requestValidator
	log        zerolog.Logger
	startedAt  time.Time
}

// NewServer creates a new API server bound to addr. A nil gatherer leaves
// /metrics unregistered.
func NewServer(addr string, engine Engine, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		engine:    engine,
		validator: newRequestValidator(engine.Events()),
		log:       log,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("api server stopped")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"error": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(body)
}

// GET /api/health — liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// GET /api/events — the event catalog callers may select from.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]interface{}{"events": s.engine.Events()})
}

// GET /api/status — run counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := s.engine.Stats()
	if resp == nil {
		resp = map[string]interface{}{}
	}
	resp["uptime_s"] = time.Since(s.startedAt).Seconds()
	s.writeJSON(w, resp)
}

// POST /api/analyze — run the pipeline for the selected events and companies.
// The body is the validated report or the parse-failure object; ?verbose=1
// returns the full run result including signals and corrections.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "ERR_BAD_REQUEST", "invalid JSON body: "+err.Error(), nil)
		return
	}
	if errs := s.validator.validate(r.Context(), &req); errs != nil {
		s.writeError(w, http.StatusBadRequest, "ERR_VALIDATION", "request validation failed", errs)
		return
	}

	res, err := s.engine.Analyze(r.Context(), app.Request{
		Events:    req.Events,
		Companies: req.Companies,
		Refresh:   req.Refresh,
	})
	switch {
	case errors.Is(err, market.ErrNoMarketData):
		s.writeError(w, http.StatusServiceUnavailable, "ERR_NO_MARKET_DATA", err.Error(), nil)
		return
	case err != nil:
		s.log.Warn().Err(err).Msg("analyze request aborted")
		s.writeError(w, http.StatusInternalServerError, "ERR_INTERNAL", err.Error(), nil)
		return
	}

	w.Header().Set("X-Run-ID", res.RunID)
	if r.URL.Query().Get("verbose") == "1" {
		s.writeJSON(w, res)
		return
	}
	s.writeJSON(w, res.Payload())
}
