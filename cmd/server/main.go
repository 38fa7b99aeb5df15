package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/application/studio"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/auth"
	"github.com/velvet/backend/internal/infrastructure/cache"
	"github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/infrastructure/demo"
	"github.com/velvet/backend/internal/infrastructure/ecommerce"
	"github.com/velvet/backend/internal/infrastructure/generative"
	"github.com/velvet/backend/internal/infrastructure/logger"
	"github.com/velvet/backend/internal/infrastructure/marketing"
	"github.com/velvet/backend/internal/infrastructure/migration"
	"github.com/velvet/backend/internal/infrastructure/persistence"
	"github.com/velvet/backend/internal/infrastructure/storage"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
	"github.com/velvet/backend/internal/interfaces/http/handler"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
	"github.com/velvet/backend/internal/interfaces/http/router"
)

//	@title			Velvet 3D Studio API
//	@version		1.0
//	@description	Shopify product catalog, 3D generation and Klaviyo campaign backend
//	@BasePath		/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: map[string]string{"app": cfg.App.Name, "env": cfg.App.Env},
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	collector := telemetry.Collector{
		Endpoint:    cfg.Telemetry.CollectorEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.Telemetry.Insecure,
	}

	// OTLP log export needs a provider before the final logger can tee onto it
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Collector: collector,
		Enabled:   cfg.Telemetry.LogsEnabled,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}

	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(lp, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Velvet studio backend",
		zap.String("port", cfg.App.Port),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Collector:     collector,
		Enabled:       cfg.Telemetry.Enabled,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Collector:      collector,
		Enabled:        cfg.Telemetry.MetricsEnabled,
		ExportInterval: 30 * time.Second,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	metrics, err := telemetry.NewStudioMetrics(mp.Meter("velvet/studio"))
	if err != nil {
		log.Fatal("Failed to create studio instruments", zap.Error(err))
	}

	// The generation ledger is optional; without it /generations answers 503
	db := openLedger(cfg, log)
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
	}

	nonces, err := cache.NewNonceStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create(cfg.OAuth.NonceStore)
	if err != nil {
		log.Fatal("Failed to create OAuth nonce store", zap.Error(err))
	}
	defer func() {
		_ = nonces.Close()
	}()

	states, err := auth.NewStateService(cfg.OAuth, nonces)
	if err != nil {
		log.Fatal("Failed to create OAuth state service", zap.Error(err))
	}

	shopifyCfg := &ecommerce.ShopifyConfig{
		APIKey:     cfg.Shopify.APIKey,
		APISecret:  cfg.Shopify.APISecret,
		Scopes:     cfg.Shopify.Scopes,
		APIVersion: cfg.Shopify.APIVersion,
		Timeout:    cfg.Shopify.Timeout,
	}
	shopify, err := ecommerce.NewShopifyAdapter(shopifyCfg,
		ecommerce.WithShopifyLogger(log),
		ecommerce.WithShopifyMetrics(metrics),
	)
	if err != nil {
		log.Fatal("Invalid Shopify configuration", zap.Error(err))
	}

	klaviyoCfg := &marketing.KlaviyoConfig{
		PrivateKey:   cfg.Klaviyo.PrivateKey,
		Revision:     cfg.Klaviyo.Revision,
		BaseURL:      cfg.Klaviyo.BaseURL,
		Timeout:      cfg.Klaviyo.Timeout,
		ClientID:     cfg.Klaviyo.ClientID,
		ClientSecret: cfg.Klaviyo.ClientSecret,
		AuthorizeURL: cfg.Klaviyo.AuthorizeURL,
		TokenURL:     cfg.Klaviyo.TokenURL,
		Scopes:       cfg.Klaviyo.Scopes,
	}
	klaviyoCfg.Validate()
	klaviyo := marketing.NewKlaviyoAdapter(klaviyoCfg,
		marketing.WithKlaviyoLogger(log),
		marketing.WithKlaviyoMetrics(metrics),
	)
	if klaviyoCfg.IsMockTracking() {
		log.Warn("Klaviyo private key not set, marketing events are logged only")
	}

	openai := generative.NewOpenAIAdapter(&generative.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		VisionModel: cfg.OpenAI.VisionModel,
		ImageModel:  cfg.OpenAI.ImageModel,
		ImageSize:   cfg.OpenAI.ImageSize,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
		MinInterval: cfg.OpenAI.MinInterval,
		MaxRetries:  cfg.OpenAI.MaxRetries,
	}, generative.WithOpenAILogger(log), generative.WithOpenAIMetrics(metrics))

	meshy := generative.NewMeshyAdapter(&generative.MeshyConfig{
		APIKey:  cfg.Meshy.APIKey,
		BaseURL: cfg.Meshy.BaseURL,
		Timeout: cfg.Meshy.Timeout,
	}, generative.WithMeshyLogger(log), generative.WithMeshyMetrics(metrics))

	studioOpts := []studio.Option{
		studio.WithGeometry(openai),
		studio.WithImages(openai),
		studio.WithMesh(meshy),
		studio.WithDelays(demoDelays(cfg.Demo)),
		studio.WithMetrics(metrics),
		studio.WithLogger(log),
		studio.WithArchive(newArchive(ctx, cfg, metrics, log)),
	}

	gemini, err := generative.NewGeminiAdapter(ctx, &generative.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	}, generative.WithGeminiLogger(log), generative.WithGeminiMetrics(metrics))
	switch {
	case err != nil:
		log.Warn("Gemini unavailable, structure analysis and variants are disabled", zap.Error(err))
	case !gemini.IsConfigured():
		log.Warn("Gemini API key not set, structure analysis and variants are disabled")
	default:
		studioOpts = append(studioOpts, studio.WithVision(gemini))
	}

	if db != nil {
		studioOpts = append(studioOpts, studio.WithRecords(persistence.NewGormGenerationRecordRepository(db.DB)))
	}

	svc := studio.NewService(shopify, demo.NewCatalog(demoDelays(cfg.Demo), log), klaviyo, studioOpts...)

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to configure request validation", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	secCfg := middleware.DefaultSecurityConfig()
	secCfg.HSTSEnabled = cfg.IsProduction()
	engine.Use(middleware.SecureWithConfig(secCfg))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.Credentials())
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(metrics))

	cookies := middleware.NewCookies(cfg.Cookie)
	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}

	router.Mount(engine, router.Handlers{
		Health: handler.NewHealthHandler(pinger),
		OAuth: handler.NewOAuthHandler(
			shopifyCfg, shopify,
			klaviyoCfg, klaviyo,
			states, cookies,
			cfg.App.RedirectURI,
		),
		Products:    handler.NewProductHandler(svc),
		Campaigns:   handler.NewCampaignHandler(svc),
		Generations: handler.NewGenerationHandler(svc),
		Mesh:        handler.NewMeshHandler(svc),
		Store:       handler.NewStoreHandler(cookies),
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Background marketing events may still be in flight
	svc.Wait()

	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter shutdown failed", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := lp.Shutdown(shutdownCtx); err != nil {
		bootLog.Warn("Log export shutdown failed", zap.Error(err))
	}
}

func demoDelays(c config.DemoConfig) demo.Delays {
	return demo.Delays{
		List:     c.ListDelay,
		Get:      c.GetDelay,
		Generate: c.GenerateDelay,
		Publish:  c.PublishDelay,
	}
}

// openLedger connects the generation ledger and brings its schema up to
// date. Any failure is logged and the server runs without a ledger.
func openLedger(cfg *config.Config, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, cfg.Log.Level, 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Warn("Generation ledger unavailable", zap.Error(err))
		return nil
	}

	if db.Driver == persistence.DriverPostgres {
		err = migrateLedger(cfg.Database.DSN(), log)
	} else {
		err = db.AutoMigrate()
	}
	if err != nil {
		log.Warn("Generation ledger schema migration failed", zap.Error(err))
		_ = db.Close()
		return nil
	}

	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterGormTracing(db.DB, db.Driver); err != nil {
			log.Warn("Failed to enable ledger query tracing", zap.Error(err))
		}
	}

	log.Info("Generation ledger connected", zap.String("driver", db.Driver))
	return db
}

// migrateLedger runs the SQL migrations over a dedicated connection, since
// closing the migrator also closes its database handle.
func migrateLedger(dsn string, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		_ = m.Close()
	}()
	return m.Up()
}

// newArchive returns the S3 asset archive when storage is enabled, and the
// no-op archive otherwise or when the bucket cannot be reached.
func newArchive(ctx context.Context, cfg *config.Config, metrics *telemetry.StudioMetrics, log *zap.Logger) integration.AssetArchive {
	if !cfg.Storage.Enabled {
		return storage.NewStubAssetArchive()
	}

	archive, err := storage.NewS3AssetArchive(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithMetrics(metrics),
	)
	if err != nil {
		log.Warn("Asset archive disabled", zap.Error(err))
		return storage.NewStubAssetArchive()
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := archive.EnsureBucket(ensureCtx); err != nil {
		log.Warn("Asset archive bucket unavailable", zap.String("bucket", archive.Bucket()), zap.Error(err))
		return storage.NewStubAssetArchive()
	}
	return archive
}
