package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/di"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/handlers"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/config"
	pfirestore "github.com/kidiezyllex/street-sneaker-sub000/internal/platform/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/jobs"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/observability"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/repositories"
	firestoreRepo "github.com/kidiezyllex/street-sneaker-sub000/internal/repositories/firestore"
	"github.com/kidiezyllex/street-sneaker-sub000/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("configuration invalid", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var receipts services.ReceiptPublisher
	var receiptTopic *pubsub.Topic
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.ReceiptTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		receiptTopic = pubsubClient.Topic(cfg.PubSub.ReceiptTopic)
		publisher, err := jobs.NewPubSubReceiptPublisher(receiptTopic)
		if err != nil {
			logger.Fatal("failed to initialise receipt publisher", zap.Error(err))
		}
		receipts = publisher
	} else {
		logger.Warn("receipt publishing disabled; pubsub project or topic not configured")
	}

	healthRepo, err := newHealthRepository(firestoreClient, receiptTopic)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	registry, err := firestoreRepo.NewRegistry(firestoreProvider, healthRepo)
	if err != nil {
		logger.Fatal("failed to initialise repository registry", zap.Error(err))
	}

	checkoutMetrics, err := observability.NewCheckoutMetrics()
	if err != nil {
		logger.Warn("checkout metrics unavailable", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, di.Deps{
		Registry: registry,
		Logger:   logger,
		Receipts: receipts,
		Metrics:  checkoutMetrics,
		Build:    buildInfo,
	})
	if err != nil {
		logger.Fatal("failed to assemble container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	svc := container.Services

	catalogHandlers := handlers.NewCatalogHandlers(svc.Catalog)
	promotionHandlers := handlers.NewPromotionHandlers(svc.Promotions)
	voucherHandlers := handlers.NewVoucherHandlers(svc.Vouchers)
	cartHandlers := handlers.NewCartHandlers(svc.Carts)
	checkoutHandlers := handlers.NewCheckoutHandlers(svc.Checkout)
	orderHandlers := handlers.NewOrderHandlers(svc.Orders)
	analyticsHandlers := handlers.NewAnalyticsHandlers(svc.Analytics)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithCORSOrigins(cfg.Server.CORSOrigins),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(catalogHandlers.Routes),
		handlers.WithVoucherRoutes(voucherHandlers.PublicRoutes),
		handlers.WithPOSCartRoutes(func(r chi.Router) {
			cartHandlers.Routes(r)
			checkoutHandlers.Routes(r)
		}),
		handlers.WithAdminRoutes(func(r chi.Router) {
			r.Route("/promotions", promotionHandlers.AdminRoutes)
			r.Route("/vouchers", voucherHandlers.AdminRoutes)
			r.Route("/orders", orderHandlers.Routes)
			if cfg.Features.EnableAnalytics {
				r.Route("/analytics", analyticsHandlers.Routes)
			}
		}),
	}
	if cfg.Features.EnablePromotions {
		opts = append(opts, handlers.WithPromotionRoutes(promotionHandlers.PublicRoutes))
	}
	if cfg.RateLimits.DefaultPerMinute > 0 {
		opts = append(opts, handlers.WithPOSMiddlewares(handlers.RateLimitMiddleware(cfg.RateLimits.DefaultPerMinute)))
	}
	if cfg.RateLimits.AdminPerMinute > 0 {
		opts = append(opts, handlers.WithAdminMiddlewares(handlers.RateLimitMiddleware(cfg.RateLimits.AdminPerMinute)))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("street-sneaker pos api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if receiptTopic != nil {
		receiptTopic.Stop()
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("POS_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("POS_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newHealthRepository(client *firestore.Client, topic *pubsub.Topic) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				exists, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("receipt topic %s does not exist", t.ID())
				}
				return nil
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks)
}
