package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"estate_crm_backend/internal/campaigns/engine"
	"estate_crm_backend/internal/campaigns/repository"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SimulatorFactory produces a fresh simulator per run. Production wires a
// time-seeded source; tests inject a fixed seed.
type SimulatorFactory func() *engine.Simulator

func DefaultSimulatorFactory() *engine.Simulator {
	return engine.New(rand.NewSource(time.Now().UnixNano()))
}

// RunScheduler enqueues a deferred run for a scheduled campaign. The
// periodic due sweep remains the safety net when no scheduler is wired.
type RunScheduler interface {
	ScheduleCampaignRun(ctx context.Context, orgID, campaignID uuid.UUID, runAt time.Time) error
}

type Service struct {
	repo  repository.CampaignRepository
	sims  SimulatorFactory
	bus   events.Bus
	log   *logger.Logger
	sched RunScheduler
}

func New(repo repository.CampaignRepository, sims SimulatorFactory, bus events.Bus, log *logger.Logger) *Service {
	if sims == nil {
		sims = DefaultSimulatorFactory
	}
	return &Service{repo: repo, sims: sims, bus: bus, log: log}
}

// SetRunScheduler wires the task queue used for exact-time campaign starts.
func (s *Service) SetRunScheduler(sched RunScheduler) {
	s.sched = sched
}

// LeadCallResult is the per-lead outcome reported to the caller.
type LeadCallResult struct {
	LeadID      uuid.UUID
	LeadName    string
	Outcome     engine.Outcome
	Transferred bool
}

// RunSummary aggregates a finished run.
type RunSummary struct {
	TotalCalls       int
	TransferredCalls int
	ConversionRate   string
}

// RunResult is the full outcome of a campaign run.
type RunResult struct {
	Campaign repository.Campaign
	Results  []LeadCallResult
	Summary  RunSummary
}

// Run simulates calls to every lead in the campaign's project. All writes
// commit in one transaction; the completion event is fire-and-forget.
func (s *Service) Run(ctx context.Context, orgID, campaignID, actorID uuid.UUID) (RunResult, error) {
	campaign, err := s.repo.GetCampaign(ctx, orgID, campaignID)
	if err != nil {
		return RunResult{}, err
	}

	leads, err := s.repo.ProjectLeads(ctx, orgID, campaign.ProjectID)
	if err != nil {
		return RunResult{}, err
	}
	if len(leads) == 0 {
		return RunResult{}, apperr.BadRequest("campaign project has no leads to call")
	}

	sim := s.sims()
	records := make([]repository.CallRecord, 0, len(leads))
	results := make([]LeadCallResult, 0, len(leads))
	transferred := 0

	for _, lead := range leads {
		call := sim.Draw()
		records = append(records, repository.CallRecord{
			LeadID:          lead.ID,
			CallSID:         "sim-" + uuid.NewString(),
			Outcome:         string(call.Outcome),
			Transferred:     call.Transferred,
			DurationSeconds: call.DurationSeconds,
			Notes:           call.Notes,
		})
		results = append(results, LeadCallResult{
			LeadID:      lead.ID,
			LeadName:    lead.Name,
			Outcome:     call.Outcome,
			Transferred: call.Transferred,
		})
		if call.Transferred {
			transferred++
		}
	}

	updated, err := s.repo.RecordRun(ctx, orgID, campaignID, records)
	if err != nil {
		return RunResult{}, err
	}

	summary := RunSummary{
		TotalCalls:       len(records),
		TransferredCalls: transferred,
		ConversionRate:   ConversionRate(transferred, len(records)),
	}

	s.bus.Publish(ctx, events.CampaignCompleted{
		BaseEvent:        events.NewBaseEvent(),
		CampaignID:       campaignID,
		OrganizationID:   orgID,
		CampaignName:     updated.Name,
		TotalCalls:       summary.TotalCalls,
		TransferredCalls: summary.TransferredCalls,
		ConversionRate:   summary.ConversionRate,
		ActorID:          actorID,
	})

	s.log.Info("campaign run completed",
		"campaign_id", campaignID.String(),
		"organization_id", orgID.String(),
		"total_calls", summary.TotalCalls,
		"transferred", summary.TransferredCalls,
	)

	return RunResult{Campaign: updated, Results: results, Summary: summary}, nil
}

// ConversionRate formats transferred/total as a two-decimal percentage.
func ConversionRate(transferred, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(transferred)/float64(total)*100)
}

// RunScheduled claims a scheduled campaign and runs it. A Conflict means
// another worker got there first; callers drop the task.
func (s *Service) RunScheduled(ctx context.Context, orgID, campaignID uuid.UUID) (RunResult, error) {
	if err := s.repo.ClaimScheduled(ctx, orgID, campaignID); err != nil {
		return RunResult{}, err
	}
	return s.Run(ctx, orgID, campaignID, uuid.Nil)
}

// dueRunConcurrency bounds how many scheduled campaigns run at once from a
// single sweep.
const dueRunConcurrency = 4

// RunDueScheduled runs every scheduled campaign whose start date has passed.
// Called from the worker; each campaign runs independently and a failure in
// one does not stop the rest.
func (s *Service) RunDueScheduled(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.repo.ListDueScheduled(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	var ran atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dueRunConcurrency)
	for _, campaign := range due {
		campaign := campaign
		g.Go(func() error {
			if _, err := s.RunScheduled(gctx, campaign.OrganizationID, campaign.ID); err != nil {
				if apperr.GetKind(err) != apperr.KindConflict {
					s.log.Error("scheduled campaign run failed",
						"campaign_id", campaign.ID.String(),
						"error", err.Error(),
					)
				}
				return nil
			}
			ran.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(ran.Load()), nil
}

func (s *Service) CreateCampaign(ctx context.Context, params repository.CreateCampaignParams) (repository.Campaign, error) {
	params.Name = sanitize.Text(params.Name)
	if params.Name == "" {
		return repository.Campaign{}, apperr.Validation("name is required")
	}
	if params.Status == repository.StatusScheduled && params.StartDate == nil {
		return repository.Campaign{}, apperr.Validation("scheduled campaigns need a start date")
	}
	// Project must exist within the tenant.
	if _, err := s.repo.GetProject(ctx, params.OrganizationID, params.ProjectID); err != nil {
		return repository.Campaign{}, err
	}

	campaign, err := s.repo.CreateCampaign(ctx, params)
	if err != nil {
		return repository.Campaign{}, err
	}

	if campaign.Status == repository.StatusScheduled && campaign.StartDate != nil && s.sched != nil {
		if err := s.sched.ScheduleCampaignRun(ctx, campaign.OrganizationID, campaign.ID, *campaign.StartDate); err != nil {
			// The periodic sweep will still pick the campaign up.
			s.log.Warn("campaign run enqueue failed",
				"campaign_id", campaign.ID.String(),
				"error", err.Error(),
			)
		}
	}
	return campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, orgID, campaignID uuid.UUID) (repository.Campaign, error) {
	return s.repo.GetCampaign(ctx, orgID, campaignID)
}

func (s *Service) ListCampaigns(ctx context.Context, orgID uuid.UUID) ([]repository.Campaign, error) {
	return s.repo.ListCampaigns(ctx, orgID)
}

func (s *Service) DeleteCampaign(ctx context.Context, orgID, campaignID uuid.UUID) error {
	return s.repo.DeleteCampaign(ctx, orgID, campaignID)
}

// CreateProject creates a project and its default campaign in one step, so
// every project is immediately callable.
func (s *Service) CreateProject(ctx context.Context, orgID uuid.UUID, name string, location *string) (repository.Project, repository.Campaign, error) {
	name = sanitize.Text(name)
	if name == "" {
		return repository.Project{}, repository.Campaign{}, apperr.Validation("name is required")
	}

	project, err := s.repo.CreateProject(ctx, orgID, name, sanitize.TextPtr(location))
	if err != nil {
		return repository.Project{}, repository.Campaign{}, err
	}

	campaign, err := s.repo.CreateCampaign(ctx, repository.CreateCampaignParams{
		OrganizationID: orgID,
		ProjectID:      project.ID,
		Name:           name + " outreach",
		Status:         repository.StatusDraft,
	})
	if err != nil {
		return repository.Project{}, repository.Campaign{}, err
	}

	return project, campaign, nil
}

func (s *Service) GetProject(ctx context.Context, orgID, projectID uuid.UUID) (repository.Project, error) {
	return s.repo.GetProject(ctx, orgID, projectID)
}

func (s *Service) ListProjects(ctx context.Context, orgID uuid.UUID) ([]repository.Project, error) {
	return s.repo.ListProjects(ctx, orgID)
}
