package transfer

import "time"

// AccountOverview is the signed-in user's profile plus the counts shown in
// the dashboard header.
type AccountOverview struct {
	ID             int64          `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	ProfilePicture string         `json:"profile_picture"`
	Brands         int            `json:"brands"`
	ApiKeys        int            `json:"api_keys"`
	ApiKeyLimit    int            `json:"api_key_limit"`
	Posts          map[string]int `json:"posts"`
	NextScheduled  *time.Time     `json:"next_scheduled,omitempty"`
}
