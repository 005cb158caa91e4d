package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"

	integrationapp "github.com/importops/backend/internal/application/integration"
	inventoryapp "github.com/importops/backend/internal/application/inventory"
	listingapp "github.com/importops/backend/internal/application/listing"
	purchasingapp "github.com/importops/backend/internal/application/purchasing"
	"github.com/importops/backend/internal/domain/inventory"
	"github.com/importops/backend/internal/infrastructure/auth"
	"github.com/importops/backend/internal/infrastructure/cache"
	"github.com/importops/backend/internal/infrastructure/channel"
	"github.com/importops/backend/internal/infrastructure/config"
	"github.com/importops/backend/internal/infrastructure/logger"
	"github.com/importops/backend/internal/infrastructure/persistence"
	"github.com/importops/backend/internal/infrastructure/scheduler"
	"github.com/importops/backend/internal/infrastructure/telemetry"
	"github.com/importops/backend/internal/interfaces/http/handler"
	"github.com/importops/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ImportOps backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if tracerProvider.IsEnabled() {
		if err := db.DB.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Distributed lock backend. Without Redis a single-process locker
	// still serializes sync runs within this instance.
	var locker integrationapp.Locker
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		locker = cache.NewRedisLocker(redisClient)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = cache.NewInMemoryLocker()
		log.Warn("Redis not configured, using in-process locks")
	}

	// Repositories
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	credRepo := persistence.NewGormCredentialRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Sales channel adapter
	channelCfg := &channel.MercadoLibreConfig{
		AppID:       cfg.Channel.AppID,
		Secret:      cfg.Channel.Secret,
		RedirectURI: cfg.Channel.RedirectURI,
		APIBaseURL:  cfg.Channel.APIBaseURL,
		AuthBaseURL: cfg.Channel.AuthBaseURL,
		Timeout:     cfg.Channel.Timeout,
	}
	salesChannel, err := channel.NewMercadoLibreAdapter(channelCfg)
	if err != nil {
		log.Fatal("Invalid channel configuration", zap.Error(err))
	}

	// Application services
	defaultPricing := inventory.PricingParams{
		FxRateArs:     decimal.NewFromFloat(cfg.Pricing.FxRateArs),
		MarkupPercent: decimal.NewFromFloat(cfg.Pricing.MarkupPercent),
	}

	orderService := purchasingapp.NewPurchaseOrderService(orderRepo)
	finalizeService := purchasingapp.NewFinalizeService(txScope, defaultPricing, log)
	productService := inventoryapp.NewProductService(productRepo, log)
	listingService := listingapp.NewListingService(listingRepo, productRepo, log)
	credentialService := integrationapp.NewCredentialService(credRepo, salesChannel, locker, log)
	syncService := listingapp.NewSyncService(listingRepo, productRepo, salesChannel, credentialService, cfg.Sync.Concurrency, log)

	// Business metrics ride on the meter provider when metrics are on
	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meterProvider.Meter("importops.business"),
			Logger:          log,
			CollectInterval: cfg.Telemetry.CollectInterval,
			StockProvider:   persistence.NewGormStockMetrics(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		finalizeService.SetBusinessMetrics(businessMetrics)
		syncService.SetBusinessMetrics(businessMetrics)
		credentialService.SetBusinessMetrics(businessMetrics)
		businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.CollectInterval)
	}

	// Periodic stock sync
	var syncScheduler *scheduler.StockSyncScheduler
	if cfg.Sync.Enabled {
		syncScheduler = scheduler.NewStockSyncScheduler(scheduler.StockSyncSchedulerConfig{
			Enabled:      true,
			CronSchedule: cfg.Sync.CronSchedule,
			LockTTL:      cfg.Sync.LockTTL,
		}, syncService, locker, log)
		if err := syncScheduler.Start(); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		log.Info("Sync scheduler started", zap.String("schedule", cfg.Sync.CronSchedule))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := router.New(cfg, log, jwtService, router.Handlers{
		System:        handler.NewSystemHandler(db, syncScheduler, version),
		PurchaseOrder: handler.NewPurchaseOrderHandler(orderService, finalizeService),
		Product:       handler.NewProductHandler(productService),
		Listing:       handler.NewListingHandler(listingService, syncService),
		Channel:       handler.NewChannelHandler(credentialService, channelCfg.AuthorizationURL),
	}, router.Options{
		TracingEnabled: tracerProvider.IsEnabled(),
		ServiceName:    cfg.Telemetry.ServiceName,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if syncScheduler != nil {
		if err := syncScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Sync scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if businessMetrics != nil {
		businessMetrics.Stop()
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
