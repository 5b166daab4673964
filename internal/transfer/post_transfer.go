package transfer

import (
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
)

type DraftCreation struct {
	BrandID         int64    `json:"brand_id" validate:"required,gt=0"`
	MediaID         int64    `json:"media_id" validate:"required,gt=0"`
	FinalCaption    string   `json:"final_caption" validate:"max=2200"`
	Platforms       []string `json:"platforms" validate:"omitempty,dive,oneof=instagram facebook pinterest"`
	GenerateCaption bool     `json:"generate_caption"`
}

type ScheduleRequest struct {
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
	Platforms    []string  `json:"platforms" validate:"omitempty,dive,oneof=instagram facebook pinterest"`
	FinalCaption *string   `json:"final_caption" validate:"omitempty,max=2200"`
}

type PostEdit struct {
	FinalCaption *string    `json:"final_caption" validate:"omitempty,max=2200"`
	Platforms    []string   `json:"platforms" validate:"omitempty,dive,oneof=instagram facebook pinterest"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type PostNowRequest struct {
	Confirm bool `json:"confirm"`
}

type ReconcileRequest struct {
	Outcome      string `json:"outcome" validate:"required,oneof=posted failed"`
	ErrorMessage string `json:"error_message" validate:"max=1000"`
}

type PostResponse struct {
	ID               int64      `json:"id"`
	BrandID          int64      `json:"brand_id"`
	MediaID          int64      `json:"media_id"`
	Status           string     `json:"status"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
	Platforms        []string   `json:"platforms"`
	GeneratedCaption string     `json:"generated_caption"`
	FinalCaption     string     `json:"final_caption"`
	PostedAt         *time.Time `json:"posted_at"`
	ErrorMessage     *string    `json:"error_message"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func NewPostResponse(p *models.Post) *PostResponse {
	resp := &PostResponse{
		ID:               p.ID,
		BrandID:          p.BrandID,
		MediaID:          p.MediaID,
		Status:           p.Status,
		Platforms:        p.Platforms,
		GeneratedCaption: p.GeneratedCaption,
		FinalCaption:     p.FinalCaption,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if resp.Platforms == nil {
		resp.Platforms = []string{}
	}
	if p.ScheduledFor.Valid {
		t := p.ScheduledFor.Time
		resp.ScheduledFor = &t
	}
	if p.PostedAt.Valid {
		t := p.PostedAt.Time
		resp.PostedAt = &t
	}
	if p.ErrorMessage.Valid {
		msg := p.ErrorMessage.String
		resp.ErrorMessage = &msg
	}
	return resp
}

type SweepSummary struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}
