package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	appfx "github.com/shoppos/backend/internal/application/fx"
	appstaff "github.com/shoppos/backend/internal/application/staff"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/cache"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/event"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/infrastructure/persistence"
	"github.com/shoppos/backend/internal/infrastructure/printing"
	"github.com/shoppos/backend/internal/infrastructure/scheduler"
	"github.com/shoppos/backend/internal/infrastructure/storage"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
	"github.com/shoppos/backend/internal/interfaces/http/handler"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
	"github.com/shoppos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry comes first so the final logger can tee into the OTLP log
	// pipeline
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log, err := logger.New(logCfg, providers.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeURL,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		providers.EnableSpanProfiles()
	}

	location, err := cfg.EOD.Location()
	if err != nil {
		log.Fatal("Invalid EOD timezone", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if stats, err := db.Stats(); err == nil {
			log.Info("Database pool at shutdown",
				zap.Int("open", stats.OpenConnections),
				zap.Int64("wait_count", stats.WaitCount),
				zap.Duration("wait_duration", stats.WaitDuration),
			)
		}
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == "sqlite" {
		// golang-migrate only manages the postgres schema
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if db.Driver() == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBConfig{
		TraceQueries:   cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:     cfg.Telemetry.DBLogFullSQL,
		System:         dbSystem,
		TracerProvider: providers.TracerProvider(),
	}, providers.Meter("pos-backend/db"), log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	// Redis backs sale reference dedup, export dedup and the rate limiter.
	// Without it each falls back to process memory.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		}
	}
	idempotency := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	eodMetrics, err := telemetry.NewEODMetrics(providers.Meter("pos-backend/eod"))
	if err != nil {
		log.Fatal("Failed to create EOD metrics", zap.Error(err))
	}
	eventBus.Subscribe(eodMetrics)

	// Application services
	tillCfg := apptill.Config{
		Location:       location,
		BalanceEpsilon: cfg.EOD.BalanceEpsilon,
	}
	scope := persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout)
	rateService := appfx.NewExchangeRateService(persistence.NewGormRateRepository(db.DB))
	dayService := apptill.NewBusinessDayService(scope, eventBus, tillCfg)
	drawerService := apptill.NewDrawerService(scope, dayService, eventBus, tillCfg)
	countService := apptill.NewCountSheetService(scope, dayService, eventBus, tillCfg)
	reconService := apptill.NewReconciliationService(scope, dayService, rateService, eventBus, tillCfg)
	saleService := apptill.NewSaleService(scope, dayService, idempotency, tillCfg)
	cashierRepo := persistence.NewGormCashierRepository(db.DB)
	cashierService := appstaff.NewCashierService(cashierRepo)
	shiftService := appstaff.NewShiftService(persistence.NewGormShiftRepository(db.DB), cashierRepo, dayService)

	// EOD export: archive JSON and Z-report PDF to object storage, once per day
	if cfg.EOD.ExportEnabled {
		store, err := storage.New(ctx, &cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			Timeout:   cfg.Printing.Timeout,
			RemoteURL: cfg.Printing.ChromeRemoteURL,
			NoSandbox: os.Geteuid() == 0,
			Logger:    log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		defer func() {
			_ = pdf.Close()
		}()
		exporter := apptill.NewEODExportHandler(scope, store, printing.NewZReportRenderer(pdf, log), log)
		eventBus.SubscribeAsync(event.NewIdempotentHandler(exporter, idempotency, log,
			event.WithKeyFunc(event.KeyByAggregate("eod-export"))))
		log.Info("EOD export enabled", zap.Bool("storage", cfg.Storage.Enabled))
	}

	// Daily rollover
	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(scheduler.Config{
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     3,
			RetryDelay:        time.Minute,
		}, scheduler.NewRolloverExecutor(dayService, log), log)
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		trigger, err := scheduler.NewRolloverTrigger(scheduler.TriggerConfig{
			Schedule: cfg.Scheduler.RolloverCron,
			Location: location,
		}, jobs, cashierRepo, log)
		if err != nil {
			log.Fatal("Invalid rollover schedule", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start rollover trigger", zap.Error(err))
		}
		defer func() {
			_ = trigger.Stop(context.Background())
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up validator", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(providers.Meter("pos-backend/http"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, providers.TracerProvider()),
		httpMetrics,
		middleware.Profiling(),
		middleware.Secure(),
	)
	if cors := middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}); cors != nil {
		engine.Use(cors)
	}
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		lim, err := middleware.NewLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, redisClient)
		if err != nil {
			log.Fatal("Failed to create rate limiter", zap.Error(err))
		}
		engine.Use(middleware.RateLimit(lim, log))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(engine, router.WithShopMiddleware(
		middleware.JWTAuth(jwtService, log),
		middleware.ShopScope(),
		middleware.SpanAttributes(),
	))

	router.Mount(r, router.Handlers{
		System:         handler.NewSystemHandler(cfg.App.Name, Version, healthChecks(db, redisClient)),
		BusinessDay:    handler.NewBusinessDayHandler(dayService),
		Drawer:         handler.NewDrawerHandler(drawerService),
		CountSheet:     handler.NewCountSheetHandler(countService),
		Reconciliation: handler.NewReconciliationHandler(reconService, dayService),
		Sale:           handler.NewSaleHandler(saleService, eodMetrics),
		ExchangeRate:   handler.NewExchangeRateHandler(rateService),
		Staff:          handler.NewStaffHandler(cashierService, shiftService),
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	log.Info("Server exited gracefully")
}

// healthChecks probes the database, and Redis when it is connected
func healthChecks(db *persistence.Database, client *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}
