package artisan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/artisan/internal/runtime"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/ports"
	"github.com/aretw0/artisan/pkg/session"
	"github.com/aretw0/artisan/pkg/simulator"
	"github.com/google/uuid"
)

// Options tunes a solve. The zero value lets the engine pick every setting.
type Options = runtime.Options

// Strategy names accepted in Options.Strategy.
const (
	StrategyAuto         = runtime.StrategyAuto
	StrategyExhaustive   = runtime.StrategyExhaustive
	StrategyDeepening    = runtime.StrategyDeepening
	StrategyFinishOnly   = runtime.StrategyFinishOnly
	StrategyEvolutionary = runtime.StrategyEvolutionary
)

// Solver is the high-level entry point of the library.
// It wraps the internal runtime and an optional macro cache.
type Solver struct {
	runtime  *runtime.Engine
	catalog  *catalog.Catalog
	sessions *session.Manager

	store   ports.MacroStore
	locker  ports.DistributedLocker
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	options Options
}

// Option defines a functional option for configuring the Solver.
type Option func(*Solver)

// WithCatalog sets the action catalog. The default is catalog.Default().
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Solver) {
		s.catalog = c
	}
}

// WithStore caches optimal solves in store, keyed by CacheKey.
func WithStore(store ports.MacroStore) Option {
	return func(s *Solver) {
		s.store = store
	}
}

// WithLocker coordinates cache fills across processes sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Solver) {
		s.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Solver) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithOptions sets the default tuning of every solve.
func WithOptions(opts Options) Option {
	return func(s *Solver) {
		s.options = opts
	}
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("catalog", s.catalog.Name())

	s.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithLogger(s.logger),
		runtime.WithOptions(s.options),
	)
	if s.store != nil {
		sessionOpts := []session.Option{session.WithLogger(s.logger)}
		if s.locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
		}
		s.sessions = session.NewManager(s.store, sessionOpts...)
	}
	return s
}

// Catalog returns the action catalog.
func (s *Solver) Catalog() *catalog.Catalog {
	return s.catalog
}

// Strategies lists the strategy names Options.Strategy accepts.
func (s *Solver) Strategies() []string {
	return s.runtime.Strategies()
}

// Cache returns the macro cache manager, or nil when no store is configured.
func (s *Solver) Cache() *session.Manager {
	return s.sessions
}

// CacheKey fingerprints settings together with the resolved catalog.
func (s *Solver) CacheKey(settings domain.Settings) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(settings)
	h.Write([]byte(s.catalog.Digest()))
	return hex.EncodeToString(h.Sum(nil))
}

// Solve searches for the best macro. With a store configured, optimal
// results are cached and concurrent identical solves run once.
// Cancelling ctx is not an error: the best macro found so far is returned.
func (s *Solver) Solve(ctx context.Context, settings domain.Settings, opts Options) (domain.Result, error) {
	if s.sessions == nil {
		return s.runtime.Solve(ctx, settings, s.catalog, opts)
	}
	if err := settings.Validate(); err != nil {
		return domain.Result{}, err
	}

	key := s.CacheKey(settings)
	var solveErr error
	rec, cached, err := s.sessions.LoadOrSolve(ctx, key,
		func(ctx context.Context) (*domain.Record, error) {
			res, err := s.runtime.Solve(ctx, settings, s.catalog, opts)
			if err != nil && !errors.Is(err, domain.ErrRecipeInfeasible) {
				return nil, err
			}
			solveErr = err
			return &domain.Record{Key: key, Settings: settings, Result: res, CreatedAt: time.Now().UTC()}, nil
		},
		func(rec *domain.Record) bool { return rec.Result.Optimal },
	)
	if err != nil {
		return domain.Result{}, err
	}

	res := rec.Result
	if cached {
		res.Cached = true
		res.SessionID = uuid.NewString()
		s.logger.Debug("macro cache hit", "key", key)
	}
	return res, solveErr
}

// Stream runs a solve in the background and delivers its events on the
// returned channel, ending with exactly one finish event. The cache is
// consulted but not filled.
func (s *Solver) Stream(ctx context.Context, settings domain.Settings, opts Options) <-chan domain.Event {
	if s.store != nil {
		if rec, err := s.store.Load(ctx, s.CacheKey(settings)); err == nil {
			res := rec.Result
			res.Cached = true
			res.SessionID = uuid.NewString()
			out := make(chan domain.Event, 1)
			out <- domain.Event{Type: domain.EventFinish, Finish: &domain.FinishEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFinish, SessionID: res.SessionID},
				Result:    &res,
			}}
			close(out)
			return out
		}
	}
	return s.runtime.Stream(ctx, settings, s.catalog, opts)
}

// Simulation is the step-by-step replay of a macro.
type Simulation struct {
	Steps []simulator.Step `json:"steps"`
	State domain.State     `json:"state"`
	Score domain.Score     `json:"score"`
	// Error explains why the replay stopped early.
	Error string `json:"error,omitempty"`
}

// Simulate replays macro from the initial state. Missing rolls are baseline.
// An illegal step ends the replay; the partial trace is returned with the
// error.
func (s *Solver) Simulate(settings domain.Settings, macro domain.Macro, rolls []domain.Roll) (Simulation, error) {
	sim, err := simulator.New(settings, s.catalog)
	if err != nil {
		return Simulation{}, err
	}
	steps, err := sim.Trace(macro, rolls)
	last := steps[len(steps)-1]
	out := Simulation{
		Steps: steps,
		State: last.State,
		Score: sim.Score(last.State, macro[:len(steps)-1]),
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out, err
}

// SimulateNames is Simulate with actions given by name.
func (s *Solver) SimulateNames(settings domain.Settings, names []string, rolls []domain.Roll) (Simulation, error) {
	macro, err := s.catalog.ParseMacro(names)
	if err != nil {
		return Simulation{}, err
	}
	return s.Simulate(settings, macro, rolls)
}
