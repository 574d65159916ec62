package transport

import (
	"time"

	"estate_crm_backend/internal/campaigns/repository"
	"estate_crm_backend/internal/campaigns/service"
)

type CreateCampaignRequest struct {
	ProjectID string     `json:"projectId" validate:"required,uuid"`
	Name      string     `json:"name" validate:"required,min=1,max=160"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled active"`
	StartDate *time.Time `json:"startDate,omitempty"`
}

type CampaignResponse struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"projectId"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	TotalCalls       int        `json:"totalCalls"`
	TransferredCalls int        `json:"transferredCalls"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type LeadCallResultResponse struct {
	LeadID      string `json:"leadId"`
	LeadName    string `json:"leadName"`
	Outcome     string `json:"outcome"`
	Transferred bool   `json:"transferred"`
}

type RunSummaryResponse struct {
	TotalCalls       int    `json:"totalCalls"`
	TransferredCalls int    `json:"transferredCalls"`
	ConversionRate   string `json:"conversionRate"`
}

type RunCampaignResponse struct {
	Campaign CampaignResponse         `json:"campaign"`
	Results  []LeadCallResultResponse `json:"results"`
	Summary  RunSummaryResponse       `json:"summary"`
}

type CreateProjectRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=160"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=160"`
}

type ProjectResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Location       *string   `json:"location,omitempty"`
	TotalUnits     int       `json:"totalUnits"`
	AvailableUnits int       `json:"availableUnits"`
	ReservedUnits  int       `json:"reservedUnits"`
	SoldUnits      int       `json:"soldUnits"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CreateProjectResponse struct {
	Project  ProjectResponse  `json:"project"`
	Campaign CampaignResponse `json:"campaign"`
}

func ToCampaignResponse(c repository.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:               c.ID.String(),
		ProjectID:        c.ProjectID.String(),
		Name:             c.Name,
		Status:           c.Status,
		TotalCalls:       c.TotalCalls,
		TransferredCalls: c.TransferredCalls,
		StartDate:        c.StartDate,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func ToProjectResponse(p repository.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Location:       p.Location,
		TotalUnits:     p.TotalUnits,
		AvailableUnits: p.AvailableUnits,
		ReservedUnits:  p.ReservedUnits,
		SoldUnits:      p.SoldUnits,
		CreatedAt:      p.CreatedAt,
	}
}

func ToRunResponse(result service.RunResult) RunCampaignResponse {
	results := make([]LeadCallResultResponse, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, LeadCallResultResponse{
			LeadID:      r.LeadID.String(),
			LeadName:    r.LeadName,
			Outcome:     string(r.Outcome),
			Transferred: r.Transferred,
		})
	}
	return RunCampaignResponse{
		Campaign: ToCampaignResponse(result.Campaign),
		Results:  results,
		Summary: RunSummaryResponse{
			TotalCalls:       result.Summary.TotalCalls,
			TransferredCalls: result.Summary.TransferredCalls,
			ConversionRate:   result.Summary.ConversionRate,
		},
	}
}
