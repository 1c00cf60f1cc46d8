// Package http exposes a Solver over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/logging"
	"github.com/aretw0/artisan/internal/presentation/macro"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/gamedata"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxTimeBudget caps the search time of a single request.
const DefaultMaxTimeBudget = 30 * time.Second

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Solver is the part of artisan.Solver the server needs.
type Solver interface {
	Solve(ctx context.Context, settings domain.Settings, opts artisan.Options) (domain.Result, error)
	Stream(ctx context.Context, settings domain.Settings, opts artisan.Options) <-chan domain.Event
	SimulateNames(settings domain.Settings, names []string, rolls []domain.Roll) (artisan.Simulation, error)
	Catalog() *catalog.Catalog
	Strategies() []string
}

// Server holds the handler dependencies.
type Server struct {
	Solver        Solver
	Logger        *slog.Logger
	MaxTimeBudget time.Duration
	metrics       http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetrics mounts h (typically promhttp.Handler()) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxTimeBudget caps the time budget of every solve. Requests without a
// budget get the cap.
func WithMaxTimeBudget(d time.Duration) Option {
	return func(s *Server) {
		s.MaxTimeBudget = d
	}
}

// SolveResponse is the body of POST /solve.
type SolveResponse struct {
	Result    domain.Result `json:"result"`
	MacroText string        `json:"macro_text,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// NewHandler creates a new HTTP handler for the solver.
func NewHandler(solver Solver, opts ...Option) http.Handler {
	s := &Server{
		Solver:        solver,
		Logger:        logging.NewNop(),
		MaxTimeBudget: DefaultMaxTimeBudget,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.Health)
	r.Get("/actions", s.Actions)
	r.Get("/strategies", s.Strategies)
	r.Post("/solve", s.Solve)
	r.Post("/solve/stream", s.SolveStream)
	r.Post("/simulate", s.Simulate)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": artisan.Version,
		"catalog": s.Solver.Catalog().Name(),
	})
}

// Actions handles GET /actions.
func (s *Server) Actions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Solver.Catalog().Actions())
}

// Strategies handles GET /strategies.
func (s *Server) Strategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Solver.Strategies())
}

// Solve handles POST /solve.
func (s *Server) Solve(w http.ResponseWriter, r *http.Request) {
	req, settings, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.Solver.Solve(r.Context(), settings, s.options(req.Options))
	if err != nil && !errors.Is(err, domain.ErrRecipeInfeasible) {
		s.writeError(w, statusFor(err), err)
		return
	}

	resp := SolveResponse{Result: res}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusUnprocessableEntity
	}
	if res.Found {
		resp.MacroText = macro.Text(s.Solver.Catalog(), res.Macro)
	}
	s.writeJSON(w, status, resp)
}

// SolveStream handles POST /solve/stream. Events are written as NDJSON,
// one object per line, ending with the finish event.
func (s *Server) SolveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	req, settings, ok := s.decode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for ev := range s.Solver.Stream(r.Context(), settings, s.options(req.Options)) {
		if err := enc.Encode(ev); err != nil {
			s.Logger.Warn("stream write failed", "error", err)
			continue
		}
		flusher.Flush()
	}
}

// Simulate handles POST /simulate.
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	req, settings, ok := s.decode(w, r)
	if !ok {
		return
	}
	if len(req.Macro) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("macro is required"))
		return
	}

	sim, err := s.Solver.SimulateNames(settings, req.Macro, req.Rolls)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, sim)
	case errors.Is(err, domain.ErrIllegalAction):
		s.writeJSON(w, http.StatusUnprocessableEntity, sim)
	default:
		s.writeError(w, statusFor(err), err)
	}
}

// decode reads a config.Request and resolves its settings. File paths are
// not accepted over HTTP.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*config.Request, domain.Settings, bool) {
	req, err := config.Load(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, domain.Settings{}, false
	}
	if req.Catalog != "" || req.Recipes != "" {
		s.writeError(w, http.StatusBadRequest, errors.New("catalog and recipes paths are not accepted over HTTP"))
		return nil, domain.Settings{}, false
	}
	settings, err := req.Resolve(s.Solver.Catalog())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return nil, domain.Settings{}, false
	}
	return req, settings, true
}

func (s *Server) options(opts artisan.Options) artisan.Options {
	if s.MaxTimeBudget > 0 && (opts.TimeBudget <= 0 || opts.TimeBudget > s.MaxTimeBudget) {
		opts.TimeBudget = s.MaxTimeBudget
	}
	return opts
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, gamedata.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownStrategy),
		errors.Is(err, config.ErrNoSettings):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	} else {
		s.Logger.Debug("request rejected", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": fmt.Sprint(err)})
}
