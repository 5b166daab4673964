package models

import "time"

type Brand struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Voice       string    `db:"voice" json:"voice"`
	Audience    string    `db:"audience" json:"audience"`
	Hashtags    string    `db:"hashtags" json:"hashtags"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
