package scheduler

import (
	"context"
	"fmt"
	"time"

	campaignsvc "estate_crm_backend/internal/campaigns/service"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// sweepBatchSize caps how many due campaigns one sweep picks up.
const sweepBatchSize = 50

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	campaigns *campaignsvc.Service
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, campaigns *campaignsvc.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		campaigns: campaigns,
		log:       log,
	}

	mux.HandleFunc(TaskCampaignRun, w.handleCampaignRun)
	mux.HandleFunc(TaskCampaignSweep, w.handleCampaignSweep)

	return w, nil
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleCampaignRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignRunPayload(task)
	if err != nil {
		return err
	}

	campaignID, err := uuid.Parse(payload.CampaignID)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q: %w", payload.CampaignID, err)
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization id %q: %w", payload.OrganizationID, err)
	}

	_, err = w.campaigns.RunScheduled(ctx, orgID, campaignID)
	if err != nil {
		// A campaign deleted, already claimed or already run before its
		// task fired is not a retryable condition.
		switch apperr.GetKind(err) {
		case apperr.KindNotFound, apperr.KindConflict:
			w.log.Warn("skipping stale campaign run task",
				"campaign_id", payload.CampaignID,
				"reason", err.Error(),
			)
			return nil
		}
		return err
	}

	w.log.Info("scheduled campaign ran", "campaign_id", payload.CampaignID)
	return nil
}

func (w *Worker) handleCampaignSweep(ctx context.Context, task *asynq.Task) error {
	ran, err := w.campaigns.RunDueScheduled(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return err
	}
	if ran > 0 {
		w.log.Info("campaign sweep finished", "ran", ran)
	}
	return nil
}
