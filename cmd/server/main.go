package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	integrationapp "github.com/possync/backend/internal/application/integration"
	locationapp "github.com/possync/backend/internal/application/location"
	menuapp "github.com/possync/backend/internal/application/menu"
	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/infrastructure/billing"
	"github.com/possync/backend/internal/infrastructure/cache"
	"github.com/possync/backend/internal/infrastructure/config"
	"github.com/possync/backend/internal/infrastructure/logger"
	"github.com/possync/backend/internal/infrastructure/persistence"
	"github.com/possync/backend/internal/infrastructure/platform"
	"github.com/possync/backend/internal/infrastructure/pos"
	"github.com/possync/backend/internal/infrastructure/telemetry"
	"github.com/possync/backend/internal/interfaces/http/handler"
	"github.com/possync/backend/internal/interfaces/http/middleware"
	"github.com/possync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS Sync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database, with GORM logging routed through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	mappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	menuRepo := persistence.NewGormMenuRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	brandRepo := persistence.NewGormCareemBrandRepository(db.DB)
	branchRepo := persistence.NewGormCareemBranchRepository(db.DB)
	credentialStore := persistence.NewGormCredentialStore(db.DB)

	// Mapping cache, in-memory or Redis per configuration
	mappingCache, err := cache.NewMappingCacheFactory(cfg.Cache, cfg.Redis, log).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize mapping cache", zap.Error(err))
	}
	log.Info("Mapping cache initialized", zap.String("backend", cfg.Cache.Backend))

	// Delivery platform adapters share one OAuth token cache
	tokenCache := platform.NewTokenCache()
	careemAdapter := platform.NewCareemAdapter(cfg.Careem, credentialStore, tokenCache, log)
	talabatAdapter := platform.NewTalabatAdapter(cfg.Talabat, credentialStore, tokenCache, log)

	registry := platform.NewRegistry()
	registry.Register(careemAdapter)
	registry.Register(talabatAdapter)

	transformers := []menu.CatalogTransformer{
		platform.NewCareemCatalogBuilder(cfg.CDN.BaseURL),
		platform.NewTalabatCatalogBuilder(cfg.CDN.BaseURL, cfg.Talabat.CallbackURL),
	}

	// POS client
	posClient := pos.NewLoyverseClient(cfg.POS, credentialStore, log)

	// Telemetry
	ctx := context.Background()
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter("possync"))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Application services
	orderGate := billing.NewQuotaOrderGate(syncLogRepo, cfg.Billing.MonthlyOrderQuota, log)
	mappingService := integrationapp.NewMappingService(mappingRepo, mappingCache, posClient, cfg.Cache.MappingTTL, log)
	orderService := integrationapp.NewOrderService(mappingService, posClient, orderGate, syncLogRepo, cfg.POS, syncMetrics, log)
	catalogService := integrationapp.NewCatalogService(menuRepo, locationRepo, registry, transformers, syncLogRepo, syncMetrics, log)
	syncLogService := integrationapp.NewSyncLogService(syncLogRepo, log)
	credentialService := integrationapp.NewCredentialService(credentialStore, registry, log)
	menuService := menuapp.NewMenuService(menuRepo, log)
	locationService := locationapp.NewLocationService(locationRepo, registry, log)
	directoryService := locationapp.NewCareemDirectoryService(brandRepo, branchRepo, locationRepo, log)

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	// Routes
	webhookVerify := middleware.WebhookSignature(credentialStore, log)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewSystemHandler(db.DB)).
		Register(handler.NewWebhookHandler(orderService, webhookVerify)).
		Register(handler.NewMappingHandler(mappingService)).
		Register(handler.NewSyncLogHandler(syncLogService, orderService)).
		Register(handler.NewMenuHandler(menuService, catalogService)).
		Register(handler.NewLocationHandler(locationService, directoryService)).
		Register(handler.NewCredentialHandler(credentialService)).
		Setup()

	// HTTP server
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
