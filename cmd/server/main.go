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
	auditapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/deployment"
	docapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
	formapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/form"
	formlinkapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/formlink"
	iamapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/iam"
	milestoneapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/milestone"
	notificationapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/notification"
	processapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/processdocument"
	viewconfigapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/viewconfig"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/auth"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/cache"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/event"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/keycloak"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/logger"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/mail"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/migration"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/processengine"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/scheduler"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/storage"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/telemetry"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/handler"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/middleware"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/router"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/migrations"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OpenTelemetry providers are no-ops when telemetry is disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log := loggerProvider.Bridge(baseLog)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Valtimo case service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithBindValues(!cfg.App.IsProduction()),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(cfg.Telemetry, log).Register(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database ready", zap.String("dialect", db.Dialect()))

	definitionRepo := persistence.NewGormDocumentDefinitionRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	searchFieldRepo := persistence.NewGormSearchFieldRepository(db.DB)
	resourceRepo := persistence.NewGormResourceRepository(db.DB)
	formRepo := persistence.NewGormFormDefinitionRepository(db.DB)
	associationRepo := persistence.NewGormFormAssociationRepository(db.DB)
	processDefinitionRepo := persistence.NewGormProcessDocumentDefinitionRepository(db.DB)
	processInstanceRepo := persistence.NewGormProcessDocumentInstanceRepository(db.DB)
	milestoneRepo := persistence.NewGormMilestoneRepository(db.DB)
	milestoneSetRepo := persistence.NewGormMilestoneSetRepository(db.DB)
	viewConfigRepo := persistence.NewGormViewConfigRepository(db.DB)
	settingsRepo := persistence.NewGormNotificationSettingsRepository(db.DB)
	auditRepo := persistence.NewGormAuditRecordRepository(db.DB)

	// Shared cache backs the user lookups and the token revocation list
	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}()
	revocations := auth.NewRevocationList(store)

	jwtService, err := auth.NewJWTService(cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token validation", zap.Error(err))
	}

	var users contract.UserManagementService
	if cfg.Keycloak.Enabled {
		client := keycloak.NewClient(ctx, cfg.Keycloak, log)
		users = keycloak.NewUserManagementService(client, cache.NewLoader(store, cfg.Keycloak.CacheTTL, log), log)
		log.Info("User management backed by Keycloak", zap.String("realm", cfg.Keycloak.Realm))
	} else {
		users = keycloak.NewClaimsUserService()
		log.Warn("Keycloak disabled, user lookups only resolve the caller")
	}

	engineClient := processengine.NewClient(cfg.ProcessEngine, log)

	resourceStorage, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize resource storage", zap.Error(err))
	}

	mailSender, err := mail.NewSender(cfg.Mail, mail.NewTemplateRegistry(), log)
	if err != nil {
		log.Fatal("Failed to initialize mail sender", zap.Error(err))
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	caseMetrics, err := telemetry.NewCaseMetrics(meterProvider.Meter("valtimo/case"))
	if err != nil {
		log.Fatal("Failed to create case metrics", zap.Error(err))
	}

	// Application services
	definitionService := docapp.NewDefinitionService(definitionRepo, documentRepo, searchFieldRepo, eventBus, log)
	documentService := docapp.NewDocumentService(definitionRepo, documentRepo, searchFieldRepo, resourceRepo, users, eventBus, log)
	searchFieldService := docapp.NewSearchFieldService(definitionRepo, searchFieldRepo)
	resourceService := docapp.NewResourceService(resourceRepo, resourceStorage, log)
	formService := formapp.NewFormService(formRepo, documentService, engineClient, log)
	processService := processapp.NewProcessDocumentService(processDefinitionRepo, processInstanceRepo,
		definitionRepo, documentService, engineClient, eventBus, log)
	formLinkService := formlinkapp.NewFormLinkService(associationRepo, formService, processService, documentService, log)
	milestoneService := milestoneapp.NewMilestoneService(milestoneRepo, milestoneSetRepo, engineClient, log)
	viewConfigService := viewconfigapp.NewViewConfigService(viewConfigRepo, cfg.Views.Available)
	userService := iamapp.NewUserService(users)
	settingsService := notificationapp.NewSettingsService(settingsRepo)
	auditService := auditapp.NewAuditService(auditRepo, log)

	eventBus.Subscribe(auditapp.NewEventRecorder(auditRepo, event.NewEventSerializer(), log))
	eventBus.Subscribe(caseMetrics)
	eventBus.Subscribe(notificationapp.NewAssignmentNotifier(settingsRepo, users, mailSender, caseMetrics, log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	if cfg.Deployment.Path != "" {
		loader := deployment.NewLoader(definitionService, formService, processService, formLinkService, log)
		report, err := loader.Deploy(ctx, os.DirFS(cfg.Deployment.Path))
		if err != nil {
			log.Fatal("Failed to auto deploy", zap.String("path", cfg.Deployment.Path), zap.Error(err))
		}
		log.Info("Auto deployment finished",
			zap.Int("deployed", report.Deployed),
			zap.Int("failed", report.Failed),
		)
	}

	// Background jobs
	var (
		jobScheduler *scheduler.Scheduler
		cronTrigger  *scheduler.CronTrigger
	)
	if cfg.Scheduler.Enabled && cfg.Audit.RetentionDays > 0 {
		jobScheduler, cronTrigger, err = startScheduler(ctx, cfg.Scheduler, auditService, cfg.Audit.RetentionDays, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	var rateLimiter *middleware.RateLimiter
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, middleware.BodyLimitOverride{
		PathPrefix: "/api/v1/resource",
		MaxBytes:   cfg.Storage.MaxUploadSize,
	}))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	var httpMeter metric.Meter
	if meterProvider.IsEnabled() {
		httpMeter = meterProvider.Meter("valtimo/http")
	}
	engine.Use(middleware.HTTPMetrics(httpMeter, log))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthChecks(db, store)...)
	engine.GET("/health", systemHandler.Health)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Logger = log
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths, "/api/v1/system/ping")

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.TracingAttributes(),
		),
	)
	router.RegisterAPI(r, router.Handlers{
		System:               systemHandler,
		Auth:                 handler.NewAuthHandler(revocations),
		Users:                handler.NewUserHandler(userService),
		NotificationSettings: handler.NewNotificationSettingsHandler(settingsService),
		Audit:                handler.NewAuditHandler(auditService),
		Definitions:          handler.NewDocumentDefinitionHandler(definitionService),
		Documents:            handler.NewDocumentHandler(documentService),
		SearchFields:         handler.NewSearchFieldHandler(searchFieldService),
		Resources:            handler.NewResourceHandler(resourceService),
		Forms:                handler.NewFormHandler(formService),
		FormAssociations:     handler.NewFormAssociationHandler(formLinkService),
		ProcessDocuments:     handler.NewProcessDocumentHandler(processService),
		Milestones:           handler.NewMilestoneHandler(milestoneService),
		ViewConfigs:          handler.NewViewConfigHandler(viewConfigService),
	}, middleware.RequireRole(middleware.RoleAdmin))
	r.Setup()

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
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited")
}

// migrateSchema applies the embedded SQL migrations on postgres and the
// model based schema on sqlite
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Dialect() != "postgres" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

func startScheduler(
	ctx context.Context,
	cfg config.SchedulerConfig,
	audit *auditapp.AuditService,
	retentionDays int,
	log *zap.Logger,
) (*scheduler.Scheduler, *scheduler.CronTrigger, error) {
	schedCfg := scheduler.DefaultSchedulerConfig()
	if cfg.MaxConcurrentJobs > 0 {
		schedCfg.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	}
	if cfg.JobTimeout > 0 {
		schedCfg.JobTimeout = cfg.JobTimeout
	}
	schedCfg.RetryAttempts = cfg.RetryAttempts
	if cfg.RetryDelay > 0 {
		schedCfg.RetryDelay = cfg.RetryDelay
	}

	sched, err := scheduler.NewScheduler(schedCfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := sched.Start(ctx); err != nil {
		return nil, nil, err
	}

	triggerCfg := scheduler.DefaultCronTriggerConfig()
	if cfg.DailyRunAt != "" {
		if triggerCfg, err = scheduler.ParseDailyRunAt(cfg.DailyRunAt); err != nil {
			return nil, nil, err
		}
	}
	trigger := scheduler.NewCronTrigger(triggerCfg, sched, log)
	trigger.RegisterDaily(auditapp.NewRetentionTask(audit, retentionDays))
	if err := trigger.Start(ctx); err != nil {
		return nil, nil, err
	}
	return sched, trigger, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

func healthChecks(db *persistence.Database, store cache.Store) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name: "database",
		Check: db.Ping,
	}}
	if redisStore, ok := store.(*cache.RedisStore); ok {
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisStore.Client().Ping(ctx).Err()
			},
		})
	}
	return checks
}
