package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/adapters/file"
	"github.com/aretw0/artisan/pkg/adapters/memory"
	"github.com/aretw0/artisan/pkg/adapters/redis"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/observability"
	"github.com/aretw0/artisan/pkg/persistence/middleware"
	"github.com/aretw0/artisan/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Cache backends accepted by Options.Store.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options carries the flags shared by the solving commands.
type Options struct {
	// Catalog overrides the catalog path named by the request.
	Catalog string
	// Recipes overrides the recipe table path named by the request.
	Recipes string

	Store         string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	// CacheSecret, when set, encrypts cached records at rest.
	CacheSecret string

	Format   string
	Progress bool
	Debug    bool

	// Registry receives solver metrics when set.
	Registry prometheus.Registerer
}

// storeDir is where the file cache lives under the project directory.
func (o Options) storeDir() string {
	dir := o.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".artisan", "macros")
}

// OpenStore builds the macro cache and, for redis, its distributed locker.
// The returned close function is never nil.
func OpenStore(opts Options) (ports.MacroStore, ports.DistributedLocker, func() error, error) {
	store, locker, closeStore, err := openBackend(opts)
	if err != nil || store == nil || opts.CacheSecret == "" {
		return store, locker, closeStore, err
	}
	sealed := middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: middleware.KeyFromPassphrase(opts.CacheSecret),
	}))
	return sealed, locker, closeStore, nil
}

func openBackend(opts Options) (ports.MacroStore, ports.DistributedLocker, func() error, error) {
	noop := func() error { return nil }
	switch opts.Store {
	case "", StoreNone:
		return nil, nil, noop, nil
	case StoreMemory:
		return memory.New(), nil, noop, nil
	case StoreFile:
		return file.New(opts.storeDir()), nil, noop, nil
	case StoreRedis:
		addr := opts.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		var storeOpts []redis.Option
		if opts.CacheTTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(opts.CacheTTL))
		}
		store := redis.New(addr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		return store, redis.NewLocker(store.Client(), redis.DefaultPrefix), store.Close, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown store %q (want none, memory, file or redis)", opts.Store)
	}
}

// createSolver initializes a Solver with standard CLI conventions.
func createSolver(opts Options, c *catalog.Catalog, logger *slog.Logger) (*artisan.Solver, func() error, error) {
	store, locker, closeStore, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}

	var hooks []domain.LifecycleHooks
	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}
	if opts.Registry != nil {
		hooks = append(hooks, observability.NewMetrics(opts.Registry).Hooks())
	}

	solverOpts := []artisan.Option{
		artisan.WithCatalog(c),
		artisan.WithLogger(logger),
		artisan.WithLifecycleHooks(domain.CombineHooks(hooks...)),
	}
	if store != nil {
		solverOpts = append(solverOpts, artisan.WithStore(store))
	}
	if locker != nil {
		solverOpts = append(solverOpts, artisan.WithLocker(locker))
	}
	return artisan.New(solverOpts...), closeStore, nil
}

// NewSolver builds a long-lived Solver for the servers over the catalog at
// opts.Catalog, or the default one.
func NewSolver(opts Options, logger *slog.Logger) (*artisan.Solver, func() error, error) {
	req := &config.Request{Catalog: opts.Catalog}
	c, err := req.LoadCatalog()
	if err != nil {
		return nil, nil, err
	}
	return createSolver(opts, c, logger)
}
