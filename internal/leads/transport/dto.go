package transport

import (
	"time"

	"estate_crm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	Name       string  `json:"name" validate:"required,min=1,max=160"`
	Phone      string  `json:"phone" validate:"required,max=20"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Source     *string `json:"source,omitempty" validate:"omitempty,max=80"`
	ProjectID  *string `json:"projectId,omitempty" validate:"omitempty,uuid"`
	StageID    *string `json:"stageId,omitempty" validate:"omitempty,uuid"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
}

type UpdateLeadRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Source     *string `json:"source,omitempty" validate:"omitempty,max=80"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
}

type ChangeStageRequest struct {
	StageID string `json:"stageId" validate:"required,uuid"`
}

type BulkUpdateRequest struct {
	LeadIDs []string          `json:"leadIds" validate:"required,min=1,max=500,dive,uuid"`
	Updates BulkUpdatesFields `json:"updates" validate:"required"`
}

type BulkUpdatesFields struct {
	StageID    *string `json:"stageId,omitempty" validate:"omitempty,uuid"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Source     *string `json:"source,omitempty" validate:"omitempty,max=80"`
}

type BulkUpdateResponse struct {
	UpdatedCount int64 `json:"updatedCount"`
}

type CreateStageRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=80"`
	Position int    `json:"position" validate:"gte=0"`
}

type StageResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type LeadResponse struct {
	ID                 string     `json:"id"`
	ProjectID          *string    `json:"projectId,omitempty"`
	StageID            *string    `json:"stageId,omitempty"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Email              *string    `json:"email,omitempty"`
	Source             *string    `json:"source,omitempty"`
	AssignedTo         *string    `json:"assignedTo,omitempty"`
	PropertyID         *string    `json:"propertyId,omitempty"`
	TransferredToHuman bool       `json:"transferredToHuman"`
	LastContactedAt    *time.Time `json:"lastContactedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                 lead.ID.String(),
		ProjectID:          uuidPtrToString(lead.ProjectID),
		StageID:            uuidPtrToString(lead.StageID),
		Name:               lead.Name,
		Phone:              lead.Phone,
		Email:              lead.Email,
		Source:             lead.Source,
		AssignedTo:         uuidPtrToString(lead.AssignedTo),
		PropertyID:         uuidPtrToString(lead.PropertyID),
		TransferredToHuman: lead.TransferredToHuman,
		LastContactedAt:    lead.LastContactedAt,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
}

func ToStageResponse(stage repository.PipelineStage) StageResponse {
	return StageResponse{
		ID:       stage.ID.String(),
		Name:     stage.Name,
		Position: stage.Position,
	}
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
