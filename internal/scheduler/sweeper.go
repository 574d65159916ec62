package scheduler

import (
	"context"
	"time"

	"estate_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper enqueues the periodic campaign sweep. It runs inside the worker
// process so a single ticker exists per deployment.
type Sweeper struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewSweeper(client *Client, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{client: client, interval: interval, log: log}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.enqueueSweep(ctx); err != nil {
				s.log.Warn("campaign sweep enqueue failed", "error", err.Error())
			}
		}
	}
}

func (s *Sweeper) enqueueSweep(ctx context.Context) error {
	if s.client == nil || s.client.client == nil {
		return nil
	}
	_, err := s.client.client.EnqueueContext(ctx, NewCampaignSweepTask(), asynq.Queue(s.client.queue))
	return err
}
