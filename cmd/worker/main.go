package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"estate_crm_backend/internal/audit"
	auditrepo "estate_crm_backend/internal/audit/repository"
	campaignrepo "estate_crm_backend/internal/campaigns/repository"
	campaignsvc "estate_crm_backend/internal/campaigns/service"
	"estate_crm_backend/internal/events"
	identityrepo "estate_crm_backend/internal/identity/repository"
	identityservice "estate_crm_backend/internal/identity/service"
	"estate_crm_backend/internal/notification"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	var sender notification.Sender
	if cfg.IsEmailEnabled() {
		sender = notification.NewSMTPSender(cfg)
	} else {
		sender = notification.NewNoopSender(log)
		log.Warn("email disabled; notifications are logged only")
	}

	// Worker-side wiring: campaign runs triggered by queue tasks publish the
	// same events as API-triggered runs, so subscribers are registered here too.
	identitySvc := identityservice.New(identityrepo.New(pool), nil, eventBus, log)
	audit.NewSubscriber(auditrepo.New(pool), log).Register(eventBus)
	notification.NewSubscriber(sender, identitySvc, log).Register(eventBus)

	campaignsService := campaignsvc.New(campaignrepo.New(pool), nil, eventBus, log)

	runClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = runClient.Close() }()
	campaignsService.SetRunScheduler(scheduler.RunSchedulerAdapter{Client: runClient})

	sweepInterval := getDurationEnv("CAMPAIGN_SWEEP_INTERVAL", time.Minute)
	go scheduler.NewSweeper(runClient, sweepInterval, log).Run(ctx)

	worker, err := scheduler.NewWorker(cfg, campaignsService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		worker.Shutdown()
	case err := <-srvErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
