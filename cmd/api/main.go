package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/dejobratic/storefront/internal/auth"
	catalogadapters "github.com/dejobratic/storefront/internal/catalog/adapters"
	cataloghttp "github.com/dejobratic/storefront/internal/catalog/adapters/http"
	catalogpostgres "github.com/dejobratic/storefront/internal/catalog/adapters/postgres"
	catalogapp "github.com/dejobratic/storefront/internal/catalog/app"
	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/httpx"
	idemmemory "github.com/dejobratic/storefront/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/storefront/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/storefront/internal/idempotency/redis"
	"github.com/dejobratic/storefront/internal/kafka"
	ordersadapters "github.com/dejobratic/storefront/internal/orders/adapters"
	ordershttp "github.com/dejobratic/storefront/internal/orders/adapters/http"
	orderspostgres "github.com/dejobratic/storefront/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	ordersmetrics "github.com/dejobratic/storefront/internal/orders/metrics"
	ordersports "github.com/dejobratic/storefront/internal/orders/ports"
	sellershttp "github.com/dejobratic/storefront/internal/sellers/adapters/http"
	sellerspostgres "github.com/dejobratic/storefront/internal/sellers/adapters/postgres"
	sellersapp "github.com/dejobratic/storefront/internal/sellers/app"
	"github.com/dejobratic/storefront/internal/server"
	"github.com/dejobratic/storefront/internal/telemetry"
	uploadshttp "github.com/dejobratic/storefront/internal/uploads/adapters/http"
	uploadsmemory "github.com/dejobratic/storefront/internal/uploads/adapters/memory"
	uploadss3 "github.com/dejobratic/storefront/internal/uploads/adapters/s3"
	uploadsapp "github.com/dejobratic/storefront/internal/uploads/app"
	uploadsports "github.com/dejobratic/storefront/internal/uploads/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel)).
		With("service", cfg.Service.Name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
}

// closer is a resource released after the HTTP server has drained.
type closer struct {
	name  string
	close func(context.Context) error
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].close(shutdownCtx); err != nil {
				logger.Error("failed to close resource", "resource", closers[i].name, "error", err)
			}
		}
	}()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	closers = append(closers, closer{"telemetry", tel.Shutdown})

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	closers = append(closers, closer{"database pool", func(context.Context) error {
		pool.Close()
		return nil
	}})

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully", "schema_version", version)
	}

	meter := telemetry.Meter()
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("create database metrics: %w", err)
	}
	httpMetrics, err := httpx.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("create http metrics: %w", err)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("create order metrics: %w", err)
	}

	idemStore, closeIdem, err := newIdempotencyStore(ctx, cfg, pool)
	if err != nil {
		return err
	}
	if closeIdem != nil {
		closers = append(closers, closer{"redis client", closeIdem})
	}

	events, closeEvents, err := newEventBus(cfg, logger, meter)
	if err != nil {
		return err
	}
	if closeEvents != nil {
		closers = append(closers, closer{"kafka writer", closeEvents})
	}

	responder := httpx.NewResponder(logger, cfg.Service.IsDevelopment())
	tokens := auth.NewTokenIssuer(auth.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	authn := auth.NewAuthenticator(tokens, responder)

	products := catalogadapters.NewObservableRepository(catalogpostgres.NewRepository(pool), dbMetrics)
	orders := ordersadapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics)

	sellerService := sellersapp.NewService(sellerspostgres.NewRepository(pool), tokens, logger)
	catalogService := catalogapp.NewService(products, logger)
	orderService := ordersapp.NewService(ordersapp.Dependencies{
		Repo:     orders,
		Products: products,
		Events:   events,
		Idem:     idemStore,
		Policy: commands.MissingProductPolicy{
			Reject:          cfg.Orders.MissingProductPolicy == "reject",
			PlaceholderName: cfg.Orders.PlaceholderProductName,
		},
		Logger:  logger,
		Metrics: orderMetrics,
	})
	objectStore, objectRoutes := newObjectStore(cfg, logger)
	uploadService := uploadsapp.NewService(objectStore, logger)

	handlers := []server.Registrar{
		sellershttp.NewHandler(sellerService, responder, authn),
		cataloghttp.NewHandler(catalogService, responder, authn),
		ordershttp.NewHandler(orderService, responder, authn),
		uploadshttp.NewHandler(uploadService, responder),
	}
	if objectRoutes != nil {
		handlers = append(handlers, objectRoutes)
	}

	handler := server.NewHandler(server.Options{
		Logger:      logger,
		Responder:   responder,
		Metrics:     httpMetrics,
		Readiness:   pool,
		FrontendURL: cfg.HTTP.FrontendURL,
		Handlers:    handlers,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "environment", cfg.Service.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func newIdempotencyStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (ordersports.IdempotencyStore, func(context.Context) error, error) {
	switch cfg.Idempotency.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return idemredis.NewStore(client, cfg.Idempotency.TTL), func(context.Context) error {
			return client.Close()
		}, nil
	case "memory":
		return idemmemory.NewStore(cfg.Idempotency.TTL), nil, nil
	default:
		return idempostgres.NewStore(pool, cfg.Idempotency.TTL), nil, nil
	}
}

func newEventBus(cfg *config.Config, logger *slog.Logger, meter metric.Meter) (ordersports.EventBus, func(context.Context) error, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not configured, order events are not published")
		return kafka.NewNoopEventBus(logger), nil, nil
	}

	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka metrics: %w", err)
	}

	publisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic))
	logger.Info("publishing order events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.OrderEventsTopic)

	return ordersadapters.NewObservableEventBus(publisher, kafkaMetrics), func(context.Context) error {
		return publisher.Close()
	}, nil
}

// newObjectStore falls back to an in-memory store served by this process under /uploads
// when no bucket is configured. The returned registrar is nil for S3.
func newObjectStore(cfg *config.Config, logger *slog.Logger) (uploadsports.ObjectStore, server.Registrar) {
	if !cfg.Storage.Configured() {
		baseURL := fmt.Sprintf("http://localhost:%d/uploads", cfg.HTTP.Port)
		logger.Warn("object storage not configured, uploads are kept in memory and lost on restart",
			"base_url", baseURL)
		store := uploadsmemory.NewStore(baseURL)
		return store, store
	}

	client := uploadss3.NewClient(uploadss3.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	return uploadss3.NewStore(client, cfg.Storage.Endpoint, cfg.Storage.Bucket), nil
}
