package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/audit"
	auditrepo "estate_crm_backend/internal/audit/repository"
	"estate_crm_backend/internal/auth"
	"estate_crm_backend/internal/billing"
	"estate_crm_backend/internal/campaigns"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/http/router"
	"estate_crm_backend/internal/identity"
	"estate_crm_backend/internal/leads"
	"estate_crm_backend/internal/notification"
	"estate_crm_backend/internal/properties"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/internal/telephony"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.Service, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	redisClient, closeRedis := initRedis(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	runClient, closeRunClient := initCampaignScheduler(cfg, log)
	if closeRunClient != nil {
		defer closeRunClient()
	}

	// Outbound email; falls back to a logging no-op when SMTP is not configured
	var sender notification.Sender
	if cfg.IsEmailEnabled() {
		sender = notification.NewSMTPSender(cfg)
		log.Info("smtp sender initialized", "host", cfg.GetSMTPHost())
	} else {
		sender = notification.NewNoopSender(log)
		log.Warn("email disabled; notifications are logged only")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for file uploads (MinIO)
	var storageSvc storage.Service
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "property-photos", cfg.GetMinioBucketPropertyPhotos())
		ensureBucket(ctx, log, minioSvc, "organization-assets", cfg.GetMinioBucketOrganizationAssets())
		ensureBucket(ctx, log, minioSvc, "call-recordings", cfg.GetMinioBucketCallRecordings())
		storageSvc = minioSvc
		log.Info(
			"storage service initialized",
			"propertyPhotosBucket", cfg.GetMinioBucketPropertyPhotos(),
			"organizationAssetsBucket", cfg.GetMinioBucketOrganizationAssets(),
			"callRecordingsBucket", cfg.GetMinioBucketCallRecordings(),
		)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; file uploads disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	identityModule := identity.NewModule(pool, redisClient, cfg.GetProfileCacheTTL(), eventBus, val, log)
	authModule := auth.NewModule(pool, cfg, sender, cfg.GetAppBaseURL(), val, log)
	leadsModule := leads.NewModule(pool, identityModule.Resolver(), eventBus, val, log)
	campaignsModule := campaigns.NewModule(pool, identityModule.Resolver(), eventBus, val, log)
	propertiesModule := properties.NewModule(pool, identityModule.Resolver(), storageSvc, cfg.GetMinioBucketPropertyPhotos(), eventBus, val, log)
	telephonyModule := telephony.NewModule(pool, cfg, identityModule.Service(), storageSvc, cfg.GetMinioBucketCallRecordings(), eventBus, log)
	billingModule := billing.NewModule(pool, cfg, identityModule.Resolver(), eventBus, val, log)

	// Scheduled campaigns get an exact-time queue task on creation; the
	// worker's periodic sweep covers the unwired case.
	if runClient != nil {
		campaignsModule.Service().SetRunScheduler(scheduler.RunSchedulerAdapter{Client: runClient})
	}

	// Event subscribers (not HTTP-facing)
	audit.NewSubscriber(auditrepo.New(pool), log).Register(eventBus)
	notification.NewSubscriber(sender, identityModule.Service(), log).Register(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			identityModule,
			leadsModule,
			campaignsModule,
			propertiesModule,
			telephonyModule,
			billingModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis builds the client backing the profile cache. A nil client
// disables caching; permission checks then always hit the database.
func initRedis(cfg *config.Config, log *logger.Logger) (*redis.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; profile cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; profile cache disabled", "error", err)
		return nil, nil
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	return client, func() {
		_ = client.Close()
	}
}

func initCampaignScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; exact-time campaign starts disabled")
		return nil, nil
	}

	runClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize campaign scheduler client", "error", err)
		return nil, nil
	}

	return runClient, func() {
		_ = runClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
