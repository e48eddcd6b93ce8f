package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/adapter/cache"
	"github.com/seu-repo/sigec-insights/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-insights/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-insights/internal/adapter/queue"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/cached"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/mongodb"
	"github.com/seu-repo/sigec-insights/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-insights/internal/adapter/vault"
	"github.com/seu-repo/sigec-insights/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/sigec-insights/internal/observability/telemetry"
	"github.com/seu-repo/sigec-insights/internal/ports"
	"github.com/seu-repo/sigec-insights/internal/service/aggregate"
	"github.com/seu-repo/sigec-insights/internal/service/analytics"
	"github.com/seu-repo/sigec-insights/internal/service/health"
	"github.com/seu-repo/sigec-insights/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting SIGEC Insights",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("backend", cfg.Source.Backend),
	)

	ctx := context.Background()
	var closers []func(context.Context) error

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:    cfg.OpenTelemetry.ServiceName,
			ServiceVersion: cfg.App.Version,
			Endpoint:       cfg.OpenTelemetry.Endpoint,
			Protocol:       cfg.OpenTelemetry.Protocol,
			Insecure:       cfg.OpenTelemetry.Insecure,
			SampleRatio:    cfg.OpenTelemetry.SampleRatio,
			Timeout:        cfg.OpenTelemetry.Timeout,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		closers = append(closers, tracerProvider.Shutdown)
	}

	// 4. Resolve secrets
	if cfg.Vault.Enabled {
		if err := resolveSecrets(ctx, cfg, logger); err != nil {
			logger.Fatal("Failed to resolve secrets from vault", zap.Error(err))
		}
	}

	healthService := health.NewService(cfg.App.Version, cfg.Source.Backend, logger)

	// 5. Initialize the document store
	var source ports.DocumentSource
	switch cfg.Source.Backend {
	case "mongo":
		client, err := mongodb.NewConnection(ctx, mongodb.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			MaxPoolSize:    cfg.Mongo.MaxPoolSize,
			MinPoolSize:    cfg.Mongo.MinPoolSize,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
			SocketTimeout:  cfg.Mongo.SocketTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		closers = append(closers, client.Disconnect)
		healthService.RegisterChecker("mongo", health.PingChecker("mongo", func(ctx context.Context) error {
			return client.Ping(ctx, readpref.SecondaryPreferred())
		}, logger))
		source = mongodb.NewSource(client, cfg.Mongo.Database, logger)

	case "postgres":
		db, err := postgres.NewConnection(postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogQueries:      cfg.Database.LogQueries,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
		}
		closers = append(closers, func(context.Context) error { return sqlDB.Close() })

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		healthService.RegisterChecker("postgres", health.PingChecker("postgres", sqlDB.PingContext, logger))
		source = postgres.NewSource(db, logger)

	case "memory":
		logger.Warn("Using the in-memory document source, every page will be empty")
		source = memory.New()
	}

	// 6. Circuit breaker around the store
	if cfg.CircuitBreaker.Enabled {
		guarded := circuitbreaker.NewSource(source, breakerSettings(cfg.CircuitBreaker, "document-source"), logger)
		healthService.RegisterChecker("circuit_breaker", health.DegradedChecker("circuit_breaker", func(context.Context) error {
			status := guarded.Status()
			if status.State != gobreaker.StateClosed.String() {
				return fmt.Errorf("circuit %s is %s", status.Name, status.State)
			}
			return nil
		}))
		source = guarded
	}

	// 7. Cache
	var cachedSource *cached.Source
	switch cfg.Cache.Driver {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		closers = append(closers, func(context.Context) error { return redisCache.Close() })
		healthService.RegisterChecker("redis", health.DegradedChecker("redis", func(ctx context.Context) error {
			return redisCache.Client().Ping(ctx).Err()
		}))
		cachedSource = cached.New(source, redisCache, cfg.Cache.TTL, logger)

	case "local":
		localCache := cache.NewLocalCache(cache.LocalConfig{
			CleanupInterval: cfg.Cache.CleanupInterval,
			MaxEntries:      cfg.Cache.MaxEntries,
		}, logger)
		closers = append(closers, func(context.Context) error { return localCache.Close() })
		cachedSource = cached.New(source, localCache, cfg.Cache.TTL, logger)
	}
	if cachedSource != nil {
		source = cachedSource
	}

	// 8. Message Queue (cache invalidation)
	if cfg.Queue.Enabled {
		messageQueue, err := queue.New(queue.Config{
			Driver:        cfg.Queue.Driver,
			URL:           cfg.Queue.URL,
			Brokers:       cfg.Queue.Brokers,
			GroupID:       cfg.Queue.GroupID,
			MaxReconnects: cfg.Queue.MaxReconnects,
			ReconnectWait: cfg.Queue.ReconnectWait,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to message queue", zap.Error(err))
		}
		closers = append(closers, func(context.Context) error { return messageQueue.Close() })

		if nq, ok := messageQueue.(*queue.NATSQueue); ok {
			healthService.RegisterChecker("nats", health.DegradedChecker("nats", func(context.Context) error {
				if !nq.Connected() {
					return errors.New("nats disconnected")
				}
				return nil
			}))
		}

		if cachedSource != nil {
			if err := cached.NewInvalidator(cachedSource, messageQueue, logger).Start(); err != nil {
				logger.Fatal("Failed to subscribe to invalidation events", zap.Error(err))
			}
		} else {
			logger.Warn("Message queue enabled without a cache, invalidation events are ignored")
		}
	}

	// 9. Analytics service
	window, err := aggregate.ParseWindow(cfg.Analytics.Window)
	if err != nil {
		logger.Fatal("Invalid analytics window", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		logger.Fatal("Invalid analytics timezone", zap.String("timezone", cfg.Analytics.Timezone), zap.Error(err))
	}
	analyticsService := analytics.NewService(source, analytics.Options{
		Window:   window,
		TopN:     cfg.Analytics.TopN,
		Location: loc,
	}, logger)

	// 10. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// API v1 Routes
	v1 := app.Group("/api/v1", middleware.Deadline(cfg.Source.FetchTimeout))
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(breakerSettings(cfg.CircuitBreaker, "sigec-api"), logger))
	}
	handlers.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(v1)

	// 11. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 12. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](shutdownCtx); err != nil {
			logger.Warn("Error releasing resource", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func breakerSettings(cfg config.CircuitBreakerConfig, name string) circuitbreaker.Settings {
	return circuitbreaker.Settings{
		Name:             name,
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		FailureThreshold: cfg.FailureThreshold,
		Retries:          cfg.Retries,
		RetryDelay:       cfg.RetryDelay,
	}
}

// resolveSecrets replaces the store connection strings with the ones kept in
// Vault. Only the backend in use is looked up.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Source.Backend {
	case "mongo":
		uri, err := sm.MongoURI(ctx)
		if err != nil {
			return err
		}
		cfg.Mongo.URI = uri
	case "postgres":
		url, err := sm.DatabaseURL(ctx)
		if err != nil {
			return err
		}
		cfg.Database.URL = url
	}
	return nil
}
