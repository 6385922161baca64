package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	identityapp "github.com/waterbill/backend/internal/application/identity"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
	"github.com/waterbill/backend/internal/infrastructure/auth"
	"github.com/waterbill/backend/internal/infrastructure/cache"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"github.com/waterbill/backend/internal/infrastructure/event"
	"github.com/waterbill/backend/internal/infrastructure/export"
	"github.com/waterbill/backend/internal/infrastructure/lock"
	"github.com/waterbill/backend/internal/infrastructure/logger"
	"github.com/waterbill/backend/internal/infrastructure/migration"
	"github.com/waterbill/backend/internal/infrastructure/persistence"
	"github.com/waterbill/backend/internal/infrastructure/printing"
	"github.com/waterbill/backend/internal/infrastructure/storage"
	"github.com/waterbill/backend/internal/infrastructure/telemetry"
	"github.com/waterbill/backend/internal/interfaces/http/handler"
	"github.com/waterbill/backend/internal/interfaces/http/middleware"
	"github.com/waterbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	startupRetryWindow = 60 * time.Second
	authRateLimit      = 10
	publicRateLimit    = 60
)

//	@title			Water Billing API
//	@version		1.0
//	@description	Billing and financial ledger engine for a water utility: tariffs, meter readings, bills, payments and the cash ledger.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger, replaced once the OTLP log bridge is up
	logCfg := logger.FromAppConfig(cfg.App, cfg.Log)
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log := bootLog
	if providers.Logs.IsEnabled() {
		log, err = logger.New(logCfg, providers.Logs.ZapCore(logCfg.ZapLevel()))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting water billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database, retried while the container network settles
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	var db *persistence.Database
	err = retry(ctx, log, "database", func() error {
		var openErr error
		db, openErr = persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
		return openErr
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver(),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := retry(ctx, log, "redis", func() error {
			return client.Ping(ctx).Err()
		}); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = client.Close()
		}()
		redisClient = client
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	currency, err := valueobject.ParseCurrency(cfg.Billing.Currency)
	if err != nil {
		log.Fatal("Invalid billing currency", zap.Error(err))
	}

	metrics, err := telemetry.NewBillingMetrics(providers.Meter.Meter("waterbill/billing"))
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	tariffCache := cache.NewTariffCache(
		persistence.NewGormTariffRepository(db.DB),
		cache.WithTTL(cfg.Billing.TariffCacheTTL),
		cache.WithLogger(log),
	)
	assignmentRepo := persistence.NewGormTariffAssignmentRepository(db.DB)
	readingRepo := persistence.NewGormReadingRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	metricsHandler := event.NewMetricsHandler(metrics)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	auditHandler := event.NewAuditLogHandler(log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	invalidation := cache.NewTariffInvalidationHandler(tariffCache)
	eventBus.Subscribe(invalidation, invalidation.EventTypes()...)

	locker, err := lock.New(cfg.Billing, redisClient, log)
	if err != nil {
		log.Fatal("Failed to create bill locker", zap.Error(err))
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	store, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize export storage", zap.Error(err))
	}

	receiptRenderer, err := printing.NewReceiptRenderer(cfg.Company.Locale)
	if err != nil {
		log.Fatal("Failed to initialize receipt renderer", zap.Error(err))
	}
	var pdfRenderer printing.PDFRenderer
	if cfg.Printing.ChromeEnabled {
		chrome := printing.NewChromedpRenderer(printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.ChromeTimeout,
			RemoteURL:      os.Getenv("CHROME_REMOTE_URL"),
			NoSandbox:      os.Geteuid() == 0,
			Logger:         log,
		})
		defer func() {
			_ = chrome.Close()
		}()
		pdfRenderer = chrome
	}

	// Application services
	authz := billingapp.NewAuthorizer(nil, metrics, log)
	resolver := billing.NewTariffResolver(customerRepo, tariffCache, assignmentRepo)
	calculator := billing.NewCalculator(currency, int32(cfg.Billing.MinorUnits))

	customerService := billingapp.NewCustomerService(customerRepo, tariffCache, assignmentRepo, authz, log)
	tariffService := billingapp.NewTariffService(tariffCache, resolver, calculator, authz, eventBus, log)
	readingService := billingapp.NewReadingService(customerRepo, readingRepo, authz, log)
	billService := billingapp.NewBillService(billingapp.BillServiceDeps{
		Customers:    customerRepo,
		Readings:     readingRepo,
		Bills:        billRepo,
		Transactions: transactionRepo,
		Resolver:     resolver,
		Calculator:   calculator,
		Locker:       locker,
		Authorizer:   authz,
		Events:       eventBus,
		Logger:       log,
	})
	receiptService := billingapp.NewReceiptService(
		billRepo, transactionRepo, customerRepo, receiptRenderer, pdfRenderer, cfg.Company, authz, log,
	)
	ledgerService := billingapp.NewLedgerService(
		ledgerRepo, transactionRepo, export.NewLedgerExporter(store, log), string(currency), authz, log,
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	if err := authService.Bootstrap(ctx, cfg.Bootstrap); err != nil {
		log.Fatal("Failed to bootstrap administrator", zap.Error(err))
	}

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		System:   handler.NewSystemHandler(db, cfg.Company, version),
		Customer: handler.NewCustomerHandler(customerService),
		Tariff:   handler.NewTariffHandler(tariffService),
		Reading:  handler.NewReadingHandler(readingService),
		Bill:     handler.NewBillHandler(billService, receiptService),
		Ledger:   handler.NewLedgerHandler(ledgerService),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order matters: the request ID and recovery wrap
	// everything, tracing starts before metrics so spans carry the route.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: providers.Meter,
		Enabled:       providers.Meter.IsEnabled(),
	}))
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = providers.Profiler.IsEnabled()
	engine.Use(middleware.Profiling(profiling))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	engine.GET("/health", handlers.System.Health)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.TracingAttributeInjector(),
		),
	)
	groups := router.BillingRoutes(handlers, router.Limits{
		Auth:   middleware.AuthRateLimit(middleware.NewRateLimiter(authRateLimit, time.Minute)),
		Public: middleware.RateLimit(middleware.NewRateLimiter(publicRateLimit, time.Minute)),
	})
	routes := 0
	for _, g := range groups {
		routes += g.RouteCount()
	}
	r.Mount(groups...).Setup()
	log.Debug("Registered API routes", zap.Int("groups", len(groups)), zap.Int("routes", routes))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// retry runs op with exponential backoff until it succeeds or the startup
// window closes
func retry(ctx context.Context, log *zap.Logger, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = startupRetryWindow
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Warn("Dependency not ready, retrying",
			zap.String("dependency", name),
			zap.Duration("next_attempt", next),
			zap.Error(err),
		)
	})
}

// migrateSchema applies the versioned SQL migrations on PostgreSQL. SQLite
// databases are created from the GORM models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() != persistence.DriverPostgres {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}
