package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/domain/competition"
	"github.com/riskibarqy/competition-engine/internal/domain/matchevent"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/eventlog"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/competition-engine/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/competition-engine/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/competition-engine/internal/platform/id"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
	"github.com/riskibarqy/competition-engine/internal/platform/resilience"
	"github.com/riskibarqy/competition-engine/internal/usecase"
)

// Container holds the services shared by the HTTP server and the CLI.
type Container struct {
	Config       config.Config
	Logger       *logging.Logger
	Clock        clockwork.Clock
	Competitions *usecase.CompetitionService
	Matches      *usecase.MatchService
	Identity     *usecase.IdentityService

	closers []func() error
}

func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Clock:  clockwork.NewRealClock(),
	}
	rules := competition.Rules{MaxNameDistance: cfg.FuzzyMaxDistance}

	repo, err := c.buildRepository(ctx, rules)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	events, err := c.buildEventLog(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	ids := idgen.NewUUIDGenerator()
	c.Competitions = usecase.NewCompetitionService(repo, ids, rules)
	c.Matches = usecase.NewMatchService(repo, events, ids, c.Clock, rules, logger)
	c.Identity = usecase.NewIdentityService(repo, rules, c.Clock, cfg.WorkerPoolSize)

	return c, nil
}

func (c *Container) buildRepository(ctx context.Context, rules competition.Rules) (competition.Repository, error) {
	cfg := c.Config
	txRetry := resilience.RetryConfig{
		MaxAttempts: cfg.StoreMaxTxAttempts,
		Backoff:     cfg.StoreRetryBackoff,
		MaxBackoff:  cfg.StoreRetryMaxBackoff,
	}

	var repo competition.Repository
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)

		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Enabled:          cfg.StoreCircuitEnabled,
			FailureThreshold: cfg.StoreCircuitFailureCount,
			OpenTimeout:      cfg.StoreCircuitOpenTimeout,
			HalfOpenTrials:   cfg.StoreCircuitHalfOpenTrials,
		}, c.Clock)
		repo = postgres.NewCompetitionRepository(db, postgres.Config{
			Rules:          rules,
			TxRetry:        txRetry,
			TransportRetry: resilience.DefaultRetryConfig(),
			Breaker:        breaker,
			Logger:         c.Logger,
		})
	default:
		repo = memory.NewCompetitionRepository(memory.SeedCompetitions(), rules, txRetry)
	}

	c.Logger.InfoContext(ctx, "competition store ready", "backend", cfg.StoreBackend, "cache_enabled", cfg.CacheEnabled)
	if cfg.CacheEnabled {
		repo = cache.NewCompetitionRepository(repo, cfg.CacheTTL, c.Clock)
	}
	return repo, nil
}

func (c *Container) buildEventLog(ctx context.Context) (matchevent.Log, error) {
	cfg := c.Config
	switch cfg.EventLogBackend {
	case config.EventLogBackendNATS:
		jsCfg := eventlog.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		jsCfg.StreamName = cfg.NATSStream
		jsCfg.SubjectPrefix = cfg.NATSSubjectPrefix

		log, err := eventlog.NewJetStreamLog(ctx, jsCfg, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect event log: %w", err)
		}
		c.closers = append(c.closers, log.Close)
		return log, nil
	case config.EventLogBackendNone:
		return eventlog.NopLog{}, nil
	default:
		return eventlog.NewMemoryLog(0), nil
	}
}

func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func NewHTTPServer(c *Container) (*http.Server, error) {
	cfg := c.Config
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(c.Competitions, c.Matches, c.Identity, c.Logger)
	router := httpapi.NewRouter(handler, c.Logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
		AdminLimiter:       httpapi.NewClientRateLimiter(cfg.AdminRateLimitRPS, cfg.AdminRateLimitBurst, c.Clock),
	})

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
