package service

import (
	"context"
	"time"

	"estate_crm_backend/internal/campaigns/engine"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/storage"
	"estate_crm_backend/internal/telephony/repository"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// hangupCauseNormal is the provider's code for a call the callee ended
// normally. Every other cause counts as unanswered.
const hangupCauseNormal = "NORMAL_CLEARING"

// retryDelays backs the bounded retry on hangup persistence. The webhook
// must answer 200 either way, so the total budget stays in seconds.
var defaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// AgentDirectory locates a human who can take a transferred call.
type AgentDirectory interface {
	FirstAvailableAgentPhone(ctx context.Context, orgID uuid.UUID) (string, error)
}

type Service struct {
	repo   repository.CallRepository
	cfg    AnswerConfig
	agents AgentDirectory
	bus    events.Bus
	log    *logger.Logger

	store            storage.Service
	recordingsBucket string

	retryDelays []time.Duration
}

func New(repo repository.CallRepository, cfg AnswerConfig, agents AgentDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		cfg:         cfg,
		agents:      agents,
		bus:         bus,
		log:         log,
		retryDelays: defaultRetryDelays,
	}
}

// SetRecordingStore wires the archive bucket for call recordings. Left
// unset, recording URLs report storage as unconfigured.
func (s *Service) SetRecordingStore(store storage.Service, bucket string) {
	s.store = store
	s.recordingsBucket = bucket
}

// RecordingURL returns a presigned download URL for the call's archived
// recording. The call must belong to the caller's organization.
func (s *Service) RecordingURL(ctx context.Context, orgID uuid.UUID, callSID string) (*storage.PresignedURL, error) {
	if s.store == nil {
		return nil, apperr.Validation("object storage is not configured")
	}

	cc, err := s.repo.GetCallContext(ctx, callSID)
	if err != nil {
		return nil, err
	}
	if cc.OrganizationID != orgID {
		return nil, apperr.NotFound("unknown call")
	}

	return s.store.GenerateDownloadURL(ctx, s.recordingsBucket, callSID+".mp3")
}

// Answer resolves the call and decides the call-control action. An unknown
// SID returns an error; the handler degrades to a hangup document.
func (s *Service) Answer(ctx context.Context, callSID string) (AnswerAction, error) {
	if _, err := s.repo.GetCallContext(ctx, callSID); err != nil {
		return nil, err
	}
	return DecideAnswerAction(s.cfg, callSID), nil
}

// OutcomeForCause maps a provider hangup cause to a call outcome.
func OutcomeForCause(cause string) string {
	if cause == hangupCauseNormal {
		return string(engine.OutcomeCalled)
	}
	return string(engine.OutcomeNoAnswer)
}

// Hangup finalizes the call log. Transient persistence failures are retried
// with backoff; a NotFound is terminal. The error return is informational
// only, the webhook responds 200 regardless.
func (s *Service) Hangup(ctx context.Context, callSID, cause string, durationSeconds int) error {
	outcome := OutcomeForCause(cause)

	var err error
	for attempt := 0; ; attempt++ {
		err = s.repo.RecordHangup(ctx, callSID, outcome, durationSeconds)
		if err == nil {
			return nil
		}
		if apperr.GetKind(err) == apperr.KindNotFound {
			return err
		}
		if attempt >= len(s.retryDelays) {
			break
		}

		select {
		case <-time.After(s.retryDelays[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.log.Error("hangup persistence retries exhausted",
		"call_sid", callSID,
		"outcome", outcome,
		"error", err.Error(),
	)
	return err
}

// Transfer hands the call to a human: the first available agent in the
// campaign's organization, or the normalized fallback number when nobody is
// free. Returns the destination to dial.
func (s *Service) Transfer(ctx context.Context, callSID, fallback string) (string, error) {
	cc, err := s.repo.GetCallContext(ctx, callSID)
	if err != nil {
		return "", err
	}

	dest, err := s.agents.FirstAvailableAgentPhone(ctx, cc.OrganizationID)
	if err != nil {
		if apperr.GetKind(err) != apperr.KindNotFound {
			return "", err
		}
		if fallback == "" {
			fallback = s.cfg.GetDefaultTransferNumber()
		}
		if fallback == "" || !phone.IsDialable(fallback) {
			return "", apperr.NotFound("no transfer destination")
		}
		dest = phone.NormalizeE164(fallback)
	}

	if err := s.repo.MarkTransferred(ctx, cc.OrganizationID, cc.CampaignID, cc.LeadID); err != nil {
		return "", err
	}

	s.bus.Publish(ctx, events.LeadTransferred{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         cc.LeadID,
		OrganizationID: cc.OrganizationID,
		CampaignID:     cc.CampaignID,
		LeadName:       cc.LeadName,
		LeadPhone:      cc.LeadPhone,
	})
	return dest, nil
}
