package plans

import (
	"time"

	"innovation-backend/internal/readiness"
	"innovation-backend/internal/strategy"
)

type planResponse struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Status      Status        `json:"status"`
	TemplateID  string        `json:"template_id,omitempty"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	Plan        strategy.Plan `json:"plan"`
}

type planSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NameAr    string    `json:"name_ar,omitempty"`
	Status    Status    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type dashboardItem struct {
	planSummary
	Score   int             `json:"score"`
	Level   readiness.Level `json:"level"`
	Quality int             `json:"quality"`
}

type createRequest struct {
	Plan       strategy.Plan `json:"plan"`
	TemplateID string        `json:"template_id"`
}

type updateRequest struct {
	Version int64         `json:"version"`
	Plan    strategy.Plan `json:"plan"`
}

type versionRequest struct {
	Version int64 `json:"version"`
}

type statusRequest struct {
	Version int64  `json:"version"`
	Status  Status `json:"status"`
}

func toResponse(rec Record) planResponse {
	return planResponse{
		ID:          rec.ID,
		OwnerID:     rec.OwnerID,
		Status:      rec.Status,
		TemplateID:  rec.TemplateID,
		Version:     rec.Version,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		SubmittedAt: rec.SubmittedAt,
		Plan:        rec.Plan.Normalize(),
	}
}

func toSummary(rec Record) planSummary {
	return planSummary{
		ID:        rec.ID,
		Name:      rec.Plan.Name,
		NameAr:    rec.Plan.NameAr,
		Status:    rec.Status,
		Version:   rec.Version,
		UpdatedAt: rec.UpdatedAt,
	}
}
