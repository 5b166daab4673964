package service

import (
	"context"
	"fmt"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type UserService interface {
	Overview(ctx context.Context, userID int64) (*transfer.AccountOverview, error)
}

type userService struct {
	u repository.UserRepository
	b repository.BrandRepository
	p repository.PostRepository
	k repository.ApiKeyRepository
}

func NewUserService(u repository.UserRepository, b repository.BrandRepository, p repository.PostRepository, k repository.ApiKeyRepository) UserService {
	return &userService{
		u: u,
		b: b,
		p: p,
		k: k,
	}
}

// Overview counts posts per status across every brand the user owns and
// reports the earliest post still waiting to go out.
func (s *userService) Overview(ctx context.Context, userID int64) (*transfer.AccountOverview, error) {
	user, exists, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "load user", Err: err}
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	brands, err := s.b.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list brands", Err: err}
	}
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "list api keys", Err: err}
	}

	overview := &transfer.AccountOverview{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		ProfilePicture: user.ProfilePicture,
		Brands:         len(brands),
		ApiKeys:        len(keys),
		ApiKeyLimit:    models.MaxApiKeysPerUser,
		Posts: map[string]int{
			models.PostStatusDraft:     0,
			models.PostStatusScheduled: 0,
			models.PostStatusPosting:   0,
			models.PostStatusPosted:    0,
			models.PostStatusFailed:    0,
		},
	}

	for _, brand := range brands {
		posts, err := s.p.ListByBrand(ctx, userID, brand.ID, "")
		if err != nil {
			return nil, &StoreError{Op: fmt.Sprintf("list posts for brand %d", brand.ID), Err: err}
		}
		for _, post := range posts {
			overview.Posts[post.Status]++
			if post.Status != models.PostStatusScheduled || !post.ScheduledFor.Valid {
				continue
			}
			if next := post.ScheduledFor.Time; overview.NextScheduled == nil || next.Before(*overview.NextScheduled) {
				overview.NextScheduled = &next
			}
		}
	}
	return overview, nil
}
