package models

import (
	"time"
)

type SocialAccount struct {
	ID              int64     `db:"id" json:"id"`
	BrandID         int64     `db:"brand_id" json:"brand_id"`
	Platform        string    `db:"platform" json:"platform"`
	AccountID       string    `db:"account_id" json:"account_id"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	PageID          string    `db:"page_id" json:"page_id"`
	AccessToken     string    `db:"access_token" json:"-"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformPinterest = "pinterest"
)

var Platforms = []string{PlatformInstagram, PlatformFacebook, PlatformPinterest}

func IsPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}
