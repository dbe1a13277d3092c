package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderledger/internal/cache"
	"github.com/nikolayk812/orderledger/internal/config"
	"github.com/nikolayk812/orderledger/internal/db"
	"github.com/nikolayk812/orderledger/internal/httpapi"
	"github.com/nikolayk812/orderledger/internal/messaging"
	"github.com/nikolayk812/orderledger/internal/observability"
	"github.com/nikolayk812/orderledger/internal/port"
	"github.com/nikolayk812/orderledger/internal/repository"
	"github.com/nikolayk812/orderledger/internal/search"
	"github.com/nikolayk812/orderledger/internal/service"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", false, "insert the default product catalog when it is empty")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if err := run(*envFile, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "orderledger: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string, seed bool) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	otelCfg := observability.OtelConfig{
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		Endpoint:       cfg.OtelEndpoint,
		AuthHeader:     cfg.OtelAuthHeader,
	}

	shutdownOtel, err := observability.Setup(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("observability.Setup: %w", err)
	}
	defer func() {
		err = errors.Join(err, shutdownOtel(context.WithoutCancel(ctx)))
	}()

	logger := observability.NewLogger(config.ServiceName, cfg.LogLevel, otelCfg.Enabled())
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}
	logger.Info("migrations applied", zap.Strings("versions", applied))

	store := repository.NewStore(pool)

	if seed {
		if _, err := service.SeedCatalog(ctx, store, service.DefaultCatalog(), logger); err != nil {
			return fmt.Errorf("service.SeedCatalog: %w", err)
		}
	}

	var productCache port.ProductCache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cache.Config{Addr: cfg.RedisURL, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			// reads fall back to the database
			logger.Warn("product cache disabled", zap.Error(err))
		} else {
			defer func() {
				_ = rdb.Close()
			}()
			productCache = cache.NewProductCache(rdb, cfg.ProductCacheTTL, logger)
		}
	}

	esClient, err := search.NewClient(cfg.ElasticsearchNode)
	if err != nil {
		return fmt.Errorf("search.NewClient: %w", err)
	}
	indexer := search.NewIndexer(esClient, cfg.SearchIndex, cfg.SearchMaxResults, logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		// retried on the first upsert
		logger.Warn("search index not ready", zap.Error(err))
	}

	writer, err := messaging.NewWriter(cfg.KafkaBrokers, otel.GetTracerProvider(), otel.GetTextMapPropagator())
	if err != nil {
		return fmt.Errorf("messaging.NewWriter: %w", err)
	}
	publisher := messaging.NewKafkaPublisher(writer, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher.Close", zap.Error(err))
		}
	}()

	orders := service.NewOrderService(store, publisher, indexer, logger,
		service.WithTopics(service.Topics{
			OrderCreated: cfg.OrderCreatedTopic,
			OrderUpdated: cfg.OrderUpdatedTopic,
		}),
		service.WithPropagationTimeout(cfg.PropagationTimeout),
		service.WithProductCache(productCache),
	)
	products := service.NewProductService(store, productCache, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(orders, products, cfg.Currency, logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", cfg.HTTPAddr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}
