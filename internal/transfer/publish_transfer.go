package transfer

type PlatformCredential struct {
	AccountID   string `json:"account_id"`
	Username    string `json:"username,omitempty"`
	PageID      string `json:"page_id,omitempty"`
	AccessToken string `json:"access_token"`
}

// PublishRequest is the body sent to the publishing workflow webhook.
type PublishRequest struct {
	PostID      int64                         `json:"post_id"`
	AttemptID   string                        `json:"attempt_id"`
	Caption     string                        `json:"caption"`
	MediaURL    string                        `json:"media_url"`
	MediaType   string                        `json:"media_type"`
	Platforms   []string                      `json:"platforms"`
	Credentials map[string]PlatformCredential `json:"credentials"`
}

type PlatformOutcome struct {
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	RemotePostID string `json:"post_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type PublishResponse struct {
	Success *bool             `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Results []PlatformOutcome `json:"results"`
}
