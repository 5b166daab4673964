package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

// PlatformService manages the social accounts a brand publishes through.
// Access tokens are encrypted before they reach the store.
type PlatformService interface {
	Connect(ctx context.Context, userID, brandID int64, conn *transfer.AccountConnection) (*models.SocialAccount, error)
	List(ctx context.Context, userID, brandID int64) ([]*models.SocialAccount, error)
	SetActive(ctx context.Context, userID, accountID int64, active bool) error
	Remove(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	secretKey string
	br        repository.BrandRepository
	sa        repository.SocialAccountRepository
}

func NewPlatformService(secretKey string, br repository.BrandRepository, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		secretKey: secretKey,
		br:        br,
		sa:        sa,
	}
}

func (s *platformService) Connect(ctx context.Context, userID, brandID int64, conn *transfer.AccountConnection) (*models.SocialAccount, error) {
	if conn == nil {
		return nil, invalid("", "account data is required")
	}
	platform := strings.ToLower(strings.TrimSpace(conn.Platform))
	if !models.IsPlatform(platform) {
		return nil, invalid("platform", fmt.Sprintf("unsupported platform %q", conn.Platform))
	}
	if conn.AccessToken == "" {
		return nil, invalid("access_token", "an access token is required")
	}

	brand, err := s.br.GetByID(ctx, userID, brandID)
	if err != nil {
		return nil, &StoreError{Op: "load brand", Err: err}
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %d: %w", brandID, ErrNotFound)
	}

	encrypted, err := utils.Encrypt(conn.AccessToken, s.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("encrypting access token: %w", err)
	}

	account := &models.SocialAccount{
		BrandID:         brandID,
		Platform:        platform,
		AccountID:       conn.AccountID,
		AccountUsername: conn.AccountUsername,
		PageID:          conn.PageID,
		AccessToken:     encrypted,
		IsActive:        true,
	}
	id, err := s.sa.Upsert(ctx, account)
	if err != nil {
		return nil, &StoreError{Op: "save social account", Err: err}
	}
	account.ID = id
	return account, nil
}

func (s *platformService) List(ctx context.Context, userID, brandID int64) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListByBrand(ctx, userID, brandID)
	if err != nil {
		return nil, &StoreError{Op: "list social accounts", Err: err}
	}
	return accounts, nil
}

func (s *platformService) SetActive(ctx context.Context, userID, accountID int64, active bool) error {
	err := s.sa.SetActive(ctx, userID, accountID, active)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("social account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return &StoreError{Op: "update social account", Err: err}
	}
	return nil
}

func (s *platformService) Remove(ctx context.Context, userID, accountID int64) error {
	err := s.sa.Remove(ctx, userID, accountID)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("social account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return &StoreError{Op: "remove social account", Err: err}
	}
	return nil
}
