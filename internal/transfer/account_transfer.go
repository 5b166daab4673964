package transfer

type AccountConnection struct {
	Platform        string `json:"platform" validate:"required,oneof=instagram facebook pinterest"`
	AccountID       string `json:"account_id" validate:"required"`
	AccountUsername string `json:"account_username"`
	PageID          string `json:"page_id"`
	AccessToken     string `json:"access_token" validate:"required"`
}

type BrandCreation struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Voice       string `json:"voice" validate:"max=500"`
	Audience    string `json:"audience" validate:"max=500"`
	Hashtags    string `json:"hashtags" validate:"max=500"`
}
