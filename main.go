package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agendabot/config"
	"agendabot/cron"
	"agendabot/database"
	appointmentRepo "agendabot/database/repository/appointment"
	catalogRepo "agendabot/database/repository/catalog"
	clientRepo "agendabot/database/repository/client"
	conversationRepo "agendabot/database/repository/conversation"
	tenantRepo "agendabot/database/repository/tenant"
	"agendabot/handlers"
	"agendabot/middleware"
	"agendabot/routes"
	"agendabot/services/availability"
	"agendabot/services/booking"
	ai "agendabot/services/intelligence"
	"agendabot/services/notification"
	"agendabot/services/resolver"
	"agendabot/services/retry"
	"agendabot/services/speech"
	"agendabot/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type indexedRepo interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	cfg := config.LoadConfig()
	logger := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("main: invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB.
	mongoClient, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	db := mongoClient.Database(cfg.DatabaseName)

	tenants := tenantRepo.NewMongoTenantRepo(db)
	catalog := catalogRepo.NewMongoCatalogRepo(db)
	appointments := appointmentRepo.NewMongoAppointmentRepo(db)
	transcripts := conversationRepo.NewMongoTranscriptRepo(db, logger)
	clients := clientRepo.NewMongoClientRepo(db)

	for _, repo := range []indexedRepo{tenants, catalog, appointments, transcripts, clients} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal("main: failed to ensure indexes", zap.Error(err))
		}
	}

	// Redis: tenant cache and conversation locks live in separate databases.
	cacheRedis, err := utils.NewRedisClient(ctx, utils.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisCacheDB})
	if err != nil {
		logger.Fatal("main: failed to connect to cache Redis", zap.Error(err))
	}
	defer cacheRedis.Close()
	lockRedis, err := utils.NewRedisClient(ctx, utils.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisLockDB})
	if err != nil {
		logger.Fatal("main: failed to connect to lock Redis", zap.Error(err))
	}
	defer lockRedis.Close()

	// Model provider.
	genaiClient, err := ai.NewGenAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal("main: failed to initialize Gemini", zap.Error(err))
	}
	defer genaiClient.Close()

	// Speech is optional; without it voice notes are rejected.
	var transcriber speech.Transcriber
	if cfg.GoogleServiceAccountFile != "" {
		stt, err := speech.NewGoogleTranscriber(ctx, cfg.GoogleServiceAccountFile, logger)
		if err != nil {
			logger.Fatal("main: failed to initialize speech client", zap.Error(err))
		}
		defer stt.Close()
		transcriber = stt
	} else {
		logger.Info("main: GOOGLE_SERVICE_ACCOUNT_FILE not set; voice notes disabled")
	}

	// Notification queue and its worker.
	queueOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
	queueClient := asynq.NewClient(queueOpts)
	defer queueClient.Close()
	worker := cron.InitNotificationWorker(ctx, queueOpts, notification.LogSender{Logger: logger}, logger)
	defer worker.Shutdown()

	notifier, err := notification.NewQueueNotifier(queueClient, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize notifier", zap.Error(err))
	}

	// Services.
	cachedTenants := tenantRepo.NewCachedTenantRepo(tenants, cacheRedis, cfg.TenantCacheTTL, logger)

	availabilityOpts := availability.DefaultOptions()
	availabilityOpts.RequireFitBeforeClose = cfg.RequireFitBeforeClose
	availabilityOpts.DefaultTimezone = cfg.DefaultTimezone

	dispatcher := &ai.Dispatcher{
		Resolver:        resolver.NewResolver(catalog, resolver.DefaultScoring()),
		Availability:    availability.NewEngine(appointments, availabilityOpts, logger),
		Booking:         booking.NewCoordinator(appointments, notifier, logger),
		Catalog:         catalog,
		Clients:         clients,
		ToolTimeout:     cfg.AgentToolTimeout,
		DefaultTimezone: cfg.DefaultTimezone,
		Logger:          logger,
		Now:             time.Now,
	}

	sessionCfg := ai.DefaultSessionConfig()
	sessionCfg.MaxModelCalls = cfg.AgentMaxToolIterations
	sessionCfg.HistoryWindow = cfg.AgentHistoryWindow
	sessionCfg.ModelTimeout = cfg.AgentModelTimeout
	sessionCfg.DefaultTimezone = cfg.DefaultTimezone
	sessionCfg.Retry = retry.Policy{
		MaxRetries: cfg.AgentMaxRetries,
		BaseDelay:  cfg.AgentRetryBaseDelay,
		MaxDelay:   30 * time.Second,
	}
	if cfg.AgentFallbackMessage != "" {
		sessionCfg.FallbackMessage = cfg.AgentFallbackMessage
	}

	sessions := ai.NewSessionManager(
		cachedTenants,
		transcripts,
		ai.NewGeminiClient(genaiClient, cfg.GeminiModel),
		dispatcher,
		ai.NewRedisConversationLock(lockRedis, cfg.AgentLockTTL, logger),
		sessionCfg,
		logger,
	)

	health := utils.NewHealthMonitor([]*redis.Client{cacheRedis, lockRedis}, mongoClient, 30*time.Second)
	health.Start(ctx)

	// Router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))

	conversationHandler := handlers.NewConversationHandler(sessions, transcriber, logger)
	handlerBundle := &handlers.HandlerBundle{
		PostMessageHandler: conversationHandler.PostMessageHandler,
		HealthHandler:      handlers.HealthHandler(health),
	}
	routes.RegisterRoutes(router, handlerBundle, routes.RouterConfig{
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimiter: middleware.NewRateLimiter(cfg.MaxRequestsPerMin),
		Logger:      logger,
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
