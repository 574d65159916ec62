package transport

import (
	"time"

	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/internal/storage"
)

type CreatePropertyRequest struct {
	ProjectID  string  `json:"projectId" validate:"required,uuid"`
	Title      string  `json:"title" validate:"required,min=2,max=200"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	PriceCents *int64  `json:"priceCents" validate:"omitempty,min=0"`
	Bedrooms   *int    `json:"bedrooms" validate:"omitempty,min=0,max=50"`
	AreaSqft   *int    `json:"areaSqft" validate:"omitempty,min=0"`
}

type UpdatePropertyRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=2,max=200"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	PriceCents *int64  `json:"priceCents" validate:"omitempty,min=0"`
	Bedrooms   *int    `json:"bedrooms" validate:"omitempty,min=0,max=50"`
	AreaSqft   *int    `json:"areaSqft" validate:"omitempty,min=0"`
}

type ChangeStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	LeadID *string `json:"leadId" validate:"omitempty,uuid"`
}

type PhotoUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type PropertyResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Title      string    `json:"title"`
	Address    *string   `json:"address,omitempty"`
	PriceCents *int64    `json:"priceCents,omitempty"`
	Bedrooms   *int      `json:"bedrooms,omitempty"`
	AreaSqft   *int      `json:"areaSqft,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ProjectUnitsResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TotalUnits     int    `json:"totalUnits"`
	AvailableUnits int    `json:"availableUnits"`
	ReservedUnits  int    `json:"reservedUnits"`
	SoldUnits      int    `json:"soldUnits"`
}

type StatusChangeResponse struct {
	Property PropertyResponse     `json:"property"`
	Project  ProjectUnitsResponse `json:"project"`
}

type PresignedURLResponse struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func ToPropertyResponse(p repository.Property) PropertyResponse {
	return PropertyResponse{
		ID:         p.ID.String(),
		ProjectID:  p.ProjectID.String(),
		Title:      p.Title,
		Address:    p.Address,
		PriceCents: p.PriceCents,
		Bedrooms:   p.Bedrooms,
		AreaSqft:   p.AreaSqft,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToStatusChangeResponse(change service.StatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		Property: ToPropertyResponse(change.Property),
		Project: ProjectUnitsResponse{
			ID:             change.Project.ID.String(),
			Name:           change.Project.Name,
			TotalUnits:     change.Project.TotalUnits,
			AvailableUnits: change.Project.AvailableUnits,
			ReservedUnits:  change.Project.ReservedUnits,
			SoldUnits:      change.Project.SoldUnits,
		},
	}
}

func ToPresignedURLResponse(u *storage.PresignedURL) PresignedURLResponse {
	return PresignedURLResponse{URL: u.URL, FileKey: u.FileKey, ExpiresAt: u.ExpiresAt}
}
