package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renewal_notifier/internal/config"
	"renewal_notifier/internal/infrastructure"
	"renewal_notifier/internal/interfaces"
	httpapi "renewal_notifier/internal/interfaces/http"
	"renewal_notifier/internal/jobs"
	"renewal_notifier/internal/repository"
	"renewal_notifier/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	infrastructure.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pgClient, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	// Initialize Repositories
	userRepo := repository.NewUserRepository(pgClient.Pool)
	roleRepo := repository.NewRoleRepository(pgClient.Pool)
	profileRepo := repository.NewProfileRepository(pgClient.Pool)
	resellerRepo := repository.NewResellerRepository(pgClient.Pool)
	tenantRepo := repository.NewTenantRepository(pgClient.Pool)
	clientRepo := repository.NewClientRepository(pgClient.Pool)
	instanceRepo := repository.NewInstanceRepository(pgClient.Pool)
	templateRepo := repository.NewTemplateRepository(pgClient.Pool)
	logRepo := repository.NewMessageLogRepository(pgClient.Pool)
	usageRepo := repository.NewUsageRepository(pgClient.Pool)
	auditRepo := repository.NewAuditRepository(pgClient.Pool)
	notificationRepo := repository.NewNotificationRepository(pgClient.Pool)
	preferenceRepo := repository.NewPreferenceRepository(pgClient.Pool)

	var lease interfaces.Lease
	switch cfg.LeaseKind() {
	case "redis":
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		lease = infrastructure.NewRedisLease(rdb)
	case "memory":
		// single replica only
		lease = infrastructure.NewMemoryLease()
	default:
		lease = repository.NewPostgresLease(pgClient.Pool)
	}
	log.Info().Str("backend", cfg.LeaseKind()).Msg("Reminder lease configured")

	var alerter interfaces.Alerter
	if cfg.TelegramBotToken != "" && cfg.TelegramAlertChatID != 0 {
		tg, err := infrastructure.NewTelegramAlerter(cfg.TelegramBotToken, cfg.TelegramAlertChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram alerts disabled")
		} else {
			alerter = tg
			log.Info().Msg("Telegram alerts enabled")
		}
	}

	messenger := infrastructure.NewUazapiClient(cfg.UazapiBaseURL, cfg.UazapiTimeout)
	limiter := infrastructure.NewSendLimiter(cfg.DispatchRatePerSecond, cfg.DispatchBurst)
	go limiter.Cleanup(ctx, 5*time.Minute)

	audit := usecases.NewAuditRecorder(auditRepo, cfg.AuditQueueSize)
	go audit.Start(ctx)

	// Initialize Usecases
	loc := cfg.Location()
	quota := usecases.NewQuotaEnforcer(roleRepo, profileRepo, resellerRepo, clientRepo, usageRepo)
	resolver := usecases.NewTemplateResolver(templateRepo)
	dispatcher := usecases.NewNotificationDispatcher(
		lease, instanceRepo, clientRepo, logRepo, usageRepo, resolver, messenger, limiter,
		usecases.DispatcherConfig{
			Workers:                cfg.DispatchWorkers,
			SendTimeout:            cfg.DispatchSendTimeout,
			MaxAttempts:            cfg.DispatchMaxAttempts,
			RetryBackoff:           cfg.DispatchRetryBackoff,
			LeaseTTL:               cfg.DispatchLeaseTTL,
			IncludeResellerClients: cfg.DispatchIncludeResellerClient,
			Triggers:               usecases.NewTriggerSet(cfg.NotifyStages),
			Location:               loc,
		},
	)

	svc := httpapi.Services{
		Auth:       usecases.NewAuthUsecase(userRepo, cfg.JWTSecret, cfg.JWTTTL),
		Accounts:   usecases.NewAccountUsecase(userRepo, tenantRepo, quota, audit),
		Clients:    usecases.NewClientUsecase(clientRepo, quota, audit, loc),
		Quota:      quota,
		Templates:  resolver,
		Inbox:      usecases.NewInboxUsecase(notificationRepo, preferenceRepo),
		Messaging:  usecases.NewMessagingUsecase(instanceRepo, usageRepo, quota, messenger, audit, cfg.UazapiTimeout),
		Tracker:    usecases.NewConnectionTracker(instanceRepo, notificationRepo, alerter),
		Dispatcher: dispatcher,
	}

	jobDone := jobs.StartReminderJob(ctx, dispatcher, cfg.DispatchInterval, cfg.DispatchLeaseTTL)

	// Setup HTTP server
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	httpapi.SetupRoutes(r, svc, httpapi.NewMiddleware(cfg.JWTSecret, cfg.CORSOrigin), httpapi.RouteConfig{
		CronSecret:       cfg.CronSecret,
		APIRatePerSecond: cfg.APIRatePerSecond,
		APIBurst:         cfg.APIBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("FAILED to start HTTP Server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	// a ticker run still sending must log its deliveries before the pool closes
	select {
	case <-jobDone:
	case <-shutdownCtx.Done():
		log.Error().Msg("reminder job did not drain before shutdown deadline")
	}
	if err := audit.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit flush incomplete")
	}
}
