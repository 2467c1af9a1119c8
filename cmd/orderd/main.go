// Package main provides the order placement service.
// The service exposes a REST API for placing and reading orders, backed by
// PostgreSQL for transactional storage, Redis for catalog read caching and
// SNS for order-placed notifications.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	inboundhttp "github.com/freshmart/orderflow/internal/adapters/inbound/http"
	"github.com/freshmart/orderflow/internal/adapters/outbound/postgres"
	rediscache "github.com/freshmart/orderflow/internal/adapters/outbound/redis"
	"github.com/freshmart/orderflow/internal/adapters/outbound/sns"
	"github.com/freshmart/orderflow/internal/adapters/outbound/telemetry"
	"github.com/freshmart/orderflow/internal/pkg/env"
	"github.com/freshmart/orderflow/internal/ports/outbound"
	"github.com/freshmart/orderflow/internal/services/orders"
)

// Build-time variables
var (
	GitCommit string
	GitBranch string
	BuildTime string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("orderd\n")
		fmt.Printf("  Commit:     %s\n", GitCommit)
		fmt.Printf("  Branch:     %s\n", GitBranch)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	logger.Info("starting orderd",
		"commit", GitCommit,
		"branch", GitBranch,
		"buildTime", BuildTime,
	)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	httpAddr := env.Get("HTTP_ADDR", ":8080")
	healthAddr := env.Get("HEALTH_ADDR", ":8081")
	redisAddr := os.Getenv("REDIS_ADDR")
	topicARN := os.Getenv("SNS_TOPIC_ARN")
	awsRegion := env.Get("AWS_REGION", "eu-west-1")
	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	var shuttingDown atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		shuttingDown.Store(true)
		cancel()
	}()

	// Metrics
	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    "orderd",
		ServiceVersion: GitCommit,
		Environment:    env.Get("ENVIRONMENT", "dev"),
		OTLPEndpoint:   otlpEndpoint,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Error("failed to shut down metrics", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics("orderd")
	if err != nil {
		logger.Error("failed to create metrics recorder", "error", err)
		os.Exit(1)
	}

	// PostgreSQL
	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(databaseURL))
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	txManager, err := postgres.NewTxManager(pool, logger)
	if err != nil {
		logger.Error("failed to create tx manager", "error", err)
		os.Exit(1)
	}
	productRepo, err := postgres.NewProductRepository(pool, logger, env.GetInt("PRODUCT_BATCH_SIZE", 0))
	if err != nil {
		logger.Error("failed to create product repository", "error", err)
		os.Exit(1)
	}
	orderRepo, err := postgres.NewOrderRepository(pool, logger)
	if err != nil {
		logger.Error("failed to create order repository", "error", err)
		os.Exit(1)
	}

	// Redis product cache (optional)
	var cache outbound.ProductCache
	if redisAddr != "" {
		cacheCfg := rediscache.ConfigDefaults()
		cacheCfg.Addr = redisAddr
		cacheCfg.Password = os.Getenv("REDIS_PASSWORD")
		cacheCfg.TTL = env.GetDuration("REDIS_TTL", cacheCfg.TTL)

		redisCache, err := rediscache.NewProductCache(cacheCfg, logger)
		if err != nil {
			logger.Error("failed to create Redis cache", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Info("Redis cache connected", "addr", redisAddr)
		cache = redisCache
	} else {
		logger.Info("REDIS_ADDR not set, product cache disabled")
	}

	// SNS event sink (optional)
	var events outbound.EventSink
	if topicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}

		sinkCfg := sns.ConfigDefaults()
		sinkCfg.TopicARN = topicARN
		sinkCfg.Logger = logger

		sink, err := sns.NewEventSink(awssns.NewFromConfig(awsCfg), sinkCfg)
		if err != nil {
			logger.Error("failed to create SNS event sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		logger.Info("SNS event sink created", "topicARN", topicARN)
		events = sink
	} else {
		logger.Info("SNS_TOPIC_ARN not set, order events disabled")
	}

	// Orders service
	serviceCfg := orders.ConfigDefaults()
	serviceCfg.Logger = logger
	serviceCfg.Retry.MaxRetries = env.GetInt("PLACEMENT_MAX_RETRIES", serviceCfg.Retry.MaxRetries)

	service, err := orders.NewService(serviceCfg, orders.Deps{
		TxManager:   txManager,
		ProductRepo: productRepo,
		OrderRepo:   orderRepo,
		Pinger:      pool,
		Cache:       cache,
		Events:      events,
		Metrics:     metrics,
	})
	if err != nil {
		logger.Error("failed to create orders service", "error", err)
		os.Exit(1)
	}
	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start orders service", "error", err)
		os.Exit(1)
	}

	// Health server for deployment probes
	healthCfg := inboundhttp.HealthServerConfigDefaults()
	healthCfg.Addr = healthAddr
	healthCfg.Logger = logger
	healthServer := inboundhttp.NewHealthServer(healthCfg, service, &shuttingDown)
	healthServer.Start()

	// API server
	handlerCfg := inboundhttp.HandlerConfigDefaults()
	handlerCfg.Logger = logger
	handlerCfg.RateLimit = float64(env.GetInt("RATE_LIMIT", int(handlerCfg.RateLimit)))
	handlerCfg.RateBurst = env.GetInt("RATE_BURST", handlerCfg.RateBurst)

	mux := http.NewServeMux()
	inboundhttp.NewHandler(service, handlerCfg).RegisterRoutes(mux)

	apiServer := &http.Server{
		Addr:         httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", httpAddr)
		serverErr <- apiServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed", "error", err)
		}
		cancel()
	}

	// Graceful shutdown: stop accepting requests, then close the health
	// server so the orchestrator drains us last.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
	}
	if err := healthServer.Shutdown(5 * time.Second); err != nil {
		logger.Error("health server shutdown failed", "error", err)
	}

	logger.Info("orderd stopped")
}
