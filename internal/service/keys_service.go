package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

type ApiKeyService interface {
	Create(ctx context.Context, userID int64) (*models.ApiKey, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	Remove(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, userID int64) (*models.ApiKey, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list api keys", Err: err}
	}
	if len(keys) >= models.MaxApiKeysPerUser {
		return nil, invalid("", fmt.Sprintf("only %d API keys can be created", models.MaxApiKeysPerUser))
	}

	key, err := utils.NewAPIKey()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("generating api key: %w", err)
	}

	apiKey := &models.ApiKey{
		UserID: userID,
		ApiKey: key,
	}
	id, err := s.k.Create(ctx, apiKey)
	if err != nil {
		return nil, &StoreError{Op: "save api key", Err: err}
	}
	apiKey.ID = id
	return apiKey, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	if !utils.IsAPIKey(apiKey) {
		return 0, fmt.Errorf("malformed api key: %w", ErrNotFound)
	}
	userID, exists, err := s.k.GetUserIDByKey(ctx, apiKey)
	if err != nil {
		return 0, &StoreError{Op: "look up api key", Err: err}
	}
	if !exists {
		return 0, fmt.Errorf("api key: %w", ErrNotFound)
	}
	return userID, nil
}

// List returns the user's keys masked. The full key is shown once, by Create.
func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list api keys", Err: err}
	}
	for _, key := range apiKeys {
		key.ApiKey = utils.MaskAPIKey(key.ApiKey)
	}
	return apiKeys, nil
}

func (s *apiKeyService) Remove(ctx context.Context, userID, keyID int64) error {
	err := s.k.Remove(ctx, userID, keyID)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("api key %d: %w", keyID, ErrNotFound)
	}
	if err != nil {
		return &StoreError{Op: "remove api key", Err: err}
	}
	return nil
}
