package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

type CredentialResolver interface {
	Resolve(ctx context.Context, brandID int64, platforms []string) (map[string]transfer.PlatformCredential, error)
}

type credentialResolver struct {
	secretKey string
	sa        repository.SocialAccountRepository
}

func NewCredentialResolver(secretKey string, sa repository.SocialAccountRepository) CredentialResolver {
	return &credentialResolver{secretKey: secretKey, sa: sa}
}

// Resolve returns one credential per requested platform or fails on the
// first platform without an active account. It never returns a partial map.
func (r *credentialResolver) Resolve(ctx context.Context, brandID int64, platforms []string) (map[string]transfer.PlatformCredential, error) {
	accounts, err := r.sa.ListActiveForBrand(ctx, brandID, platforms)
	if err != nil {
		return nil, &StoreError{Op: "list social accounts", Err: err}
	}

	creds := make(map[string]transfer.PlatformCredential, len(platforms))
	for _, acc := range accounts {
		token, err := utils.Decrypt(acc.AccessToken, r.secretKey)
		if err != nil {
			slog.Warn("unreadable access token", "brand_id", brandID, "platform", acc.Platform, "account_id", acc.ID)
			continue
		}
		creds[acc.Platform] = transfer.PlatformCredential{
			AccountID:   acc.AccountID,
			Username:    acc.AccountUsername,
			PageID:      acc.PageID,
			AccessToken: token,
		}
	}

	for _, p := range platforms {
		if _, ok := creds[p]; !ok {
			return nil, &MissingCredentialError{BrandID: brandID, Platform: p}
		}
	}

	resolved := make(map[string]transfer.PlatformCredential, len(platforms))
	for _, p := range platforms {
		resolved[p] = creds[p]
	}
	return resolved, nil
}
