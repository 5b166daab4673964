package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nullTime(at time.Time) sql.NullTime {
	return sql.NullTime{Time: at, Valid: true}
}

func TestAccountOverview(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	userID, err := store.Users().UpsertByEmail(ctx, &models.User{Email: "ana@example.com", Name: "Ana"})
	require.NoError(t, err)
	brandID, err := store.Brands().Create(ctx, &models.Brand{UserID: userID, Name: "Ana Bakes"})
	require.NoError(t, err)
	_, err = store.ApiKeys().Create(ctx, &models.ApiKey{UserID: userID, ApiKey: "pp_0123456789abcdefghijklmnopqrstuv"})
	require.NoError(t, err)

	soon := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, post := range []*models.Post{
		{BrandID: brandID, Status: models.PostStatusDraft},
		{BrandID: brandID, Status: models.PostStatusScheduled, ScheduledFor: nullTime(soon.Add(time.Hour))},
		{BrandID: brandID, Status: models.PostStatusScheduled, ScheduledFor: nullTime(soon)},
		{BrandID: brandID, Status: models.PostStatusFailed, ScheduledFor: nullTime(soon.Add(-time.Hour))},
	} {
		_, err := store.Posts().Create(ctx, post)
		require.NoError(t, err)
	}

	users := NewUserService(store.Users(), store.Brands(), store.Posts(), store.ApiKeys())
	overview, err := users.Overview(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", overview.Email)
	assert.Equal(t, 1, overview.Brands)
	assert.Equal(t, 1, overview.ApiKeys)
	assert.Equal(t, models.MaxApiKeysPerUser, overview.ApiKeyLimit)
	assert.Equal(t, map[string]int{"draft": 1, "scheduled": 2, "posting": 0, "posted": 0, "failed": 1}, overview.Posts)
	require.NotNil(t, overview.NextScheduled)
	assert.True(t, overview.NextScheduled.Equal(soon))
}

func TestAccountOverviewUnknownUser(t *testing.T) {
	store := memory.NewStore()
	users := NewUserService(store.Users(), store.Brands(), store.Posts(), store.ApiKeys())

	_, err := users.Overview(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
