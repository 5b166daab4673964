package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type BrandService interface {
	Create(ctx context.Context, userID int64, bc *transfer.BrandCreation) (*models.Brand, error)
	Get(ctx context.Context, userID, brandID int64) (*models.Brand, error)
	List(ctx context.Context, userID int64) ([]*models.Brand, error)
	Update(ctx context.Context, userID, brandID int64, bc *transfer.BrandCreation) (*models.Brand, error)
	Remove(ctx context.Context, userID, brandID int64) error
}

type brandService struct {
	br repository.BrandRepository
}

func NewBrandService(br repository.BrandRepository) BrandService {
	return &brandService{br: br}
}

func (s *brandService) Create(ctx context.Context, userID int64, bc *transfer.BrandCreation) (*models.Brand, error) {
	brand := brandFrom(bc)
	if brand.Name == "" {
		return nil, invalid("name", "a brand name is required")
	}
	brand.UserID = userID

	id, err := s.br.Create(ctx, brand)
	if err != nil {
		return nil, &StoreError{Op: "create brand", Err: err}
	}
	brand.ID = id
	return brand, nil
}

func (s *brandService) Get(ctx context.Context, userID, brandID int64) (*models.Brand, error) {
	brand, err := s.br.GetByID(ctx, userID, brandID)
	if err != nil {
		return nil, &StoreError{Op: "load brand", Err: err}
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %d: %w", brandID, ErrNotFound)
	}
	return brand, nil
}

func (s *brandService) List(ctx context.Context, userID int64) ([]*models.Brand, error) {
	brands, err := s.br.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list brands", Err: err}
	}
	return brands, nil
}

func (s *brandService) Update(ctx context.Context, userID, brandID int64, bc *transfer.BrandCreation) (*models.Brand, error) {
	brand := brandFrom(bc)
	if brand.Name == "" {
		return nil, invalid("name", "a brand name is required")
	}
	brand.ID = brandID
	brand.UserID = userID

	err := s.br.Update(ctx, brand)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return nil, fmt.Errorf("brand %d: %w", brandID, ErrNotFound)
	}
	if err != nil {
		return nil, &StoreError{Op: "update brand", Err: err}
	}
	return s.Get(ctx, userID, brandID)
}

// Remove deletes the brand together with its accounts, posts and history.
func (s *brandService) Remove(ctx context.Context, userID, brandID int64) error {
	err := s.br.Remove(ctx, userID, brandID)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("brand %d: %w", brandID, ErrNotFound)
	}
	if err != nil {
		return &StoreError{Op: "remove brand", Err: err}
	}
	return nil
}

func brandFrom(bc *transfer.BrandCreation) *models.Brand {
	if bc == nil {
		return &models.Brand{}
	}
	return &models.Brand{
		Name:        strings.TrimSpace(bc.Name),
		Description: strings.TrimSpace(bc.Description),
		Voice:       strings.TrimSpace(bc.Voice),
		Audience:    strings.TrimSpace(bc.Audience),
		Hashtags:    strings.TrimSpace(bc.Hashtags),
	}
}
