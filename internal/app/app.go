package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/review-service/internal/auth"
	"github.com/utafrali/review-service/internal/cache"
	"github.com/utafrali/review-service/internal/catalog"
	"github.com/utafrali/review-service/internal/config"
	"github.com/utafrali/review-service/internal/event"
	handler "github.com/utafrali/review-service/internal/handler/http"
	"github.com/utafrali/review-service/internal/repository/postgres"
	"github.com/utafrali/review-service/internal/service"
	"github.com/utafrali/review-service/migrations"
	"github.com/utafrali/review-service/pkg/database"
	"github.com/utafrali/review-service/pkg/health"
	pkgkafka "github.com/utafrali/review-service/pkg/kafka"
	"github.com/utafrali/review-service/pkg/middleware"
	"github.com/utafrali/review-service/pkg/tracing"
)

const serviceName = "review-service"

// App wires together all dependencies and runs the review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	redis          *redis.Client
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, "review"); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})

	// Kafka producer, or a no-op publisher when events are disabled.
	var events service.EventPublisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, review events are not published")
	}

	// Redis rating cache.
	var ratingCache service.RatingCache
	if cfg.RatingCacheEnabled {
		a.redis, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		ratingCache = cache.NewRatingCache(a.redis, cfg.RatingCacheTTL())
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
		logger.Info("rating cache enabled",
			slog.String("addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.RatingCacheTTL()),
		)
	}

	// Catalog product check.
	var productCatalog service.ProductCatalog
	if cfg.CatalogServiceURL != "" {
		productCatalog = catalog.NewClient(cfg.CatalogServiceURL, logger)
		logger.Info("catalog product check enabled", slog.String("url", cfg.CatalogServiceURL))
	}

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty, moderator endpoints reject every call")
	}

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(a.pool)
	voteRepo := postgres.NewVoteRepository(a.pool)
	ratingRepo := postgres.NewRatingRepository(a.pool)

	services := handler.Services{
		Reviews: service.NewReviewService(reviewRepo, productCatalog, events, logger),
		Votes:   service.NewVoteService(voteRepo, events, logger),
		Ratings: service.NewRatingService(ratingRepo, ratingCache, logger),
	}

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	// HTTP router.
	router := handler.NewRouter(
		services,
		auth.NewGate(cfg.AdminToken, logger),
		a.limiter,
		healthHandler,
		logger,
		cfg.PprofAllowedCIDRs,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests, then flushes spans and closes the
// Kafka producer, Redis client and PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()
	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
