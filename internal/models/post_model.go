package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID               int64          `db:"id" json:"id"`
	BrandID          int64          `db:"brand_id" json:"brand_id"`
	MediaID          int64          `db:"media_id" json:"media_id"`
	Status           string         `db:"status" json:"status"` // draft, scheduled, posting, posted, failed
	ScheduledFor     sql.NullTime   `db:"scheduled_for" json:"-"`
	Platforms        []string       `db:"platforms" json:"platforms"`
	GeneratedCaption string         `db:"generated_caption" json:"generated_caption"`
	FinalCaption     string         `db:"final_caption" json:"final_caption"`
	PostedAt         sql.NullTime   `db:"posted_at" json:"-"`
	ErrorMessage     sql.NullString `db:"error_message" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// PostChanges is a partial update. Nil fields keep their stored value.
type PostChanges struct {
	Status       *string
	FinalCaption *string
	Platforms    []string
	ScheduledFor *time.Time
}

// StatusChange is a compare-and-swap on posts.status. When ScheduledFor is
// set, the stored scheduled_for must also still equal it.
type StatusChange struct {
	From         string
	To           string
	At           time.Time
	ErrorMessage string
	ScheduledFor *sql.NullTime
}

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	MediaType    string    `db:"media_type" json:"media_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	Width        int       `db:"width" json:"width"`
	Height       int       `db:"height" json:"height"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPosting   = "posting"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)
