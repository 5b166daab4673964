package models

import "time"

type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	BrandID      int64     `db:"brand_id" json:"brand_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	AttemptID    string    `db:"attempt_id" json:"attempt_id"`
	Trigger      string    `db:"trigger" json:"trigger"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	TriggerSweep     = "sweep"
	TriggerManual    = "manual"
	TriggerQueue     = "queue"
	TriggerReconcile = "reconcile"
)
