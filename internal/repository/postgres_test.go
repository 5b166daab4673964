package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to POSTGRES_URI and applies the schema. Tests that
// need it are skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	uri := os.Getenv("POSTGRES_URI")
	if uri == "" {
		t.Skip("POSTGRES_URI not set, skipping postgres tests")
	}

	db, err := sql.Open("postgres", uri)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

type pgFixture struct {
	db      *sql.DB
	userID  int64
	brandID int64
	mediaID int64
	posts   PostRepository
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()

	userID, err := NewUserRepository(db).UpsertByEmail(ctx, &models.User{
		Email: fmt.Sprintf("repo-%d@example.com", time.Now().UnixNano()),
		Name:  "Repo Test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", userID) })

	brandID, err := NewBrandRepository(db).Create(ctx, &models.Brand{UserID: userID, Name: "Acme"})
	require.NoError(t, err)
	mediaID, err := NewMediaAssetRepository(db).Create(ctx, &models.MediaAsset{
		UserID:    userID,
		FileName:  "a.jpg",
		FileType:  "image/jpeg",
		MediaType: models.MediaTypeImage,
		FileURL:   "https://cdn.example.com/a.jpg",
	})
	require.NoError(t, err)

	return &pgFixture{db: db, userID: userID, brandID: brandID, mediaID: mediaID, posts: NewPostRepository(db)}
}

func (f *pgFixture) scheduled(t *testing.T, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		BrandID:      f.brandID,
		MediaID:      f.mediaID,
		Status:       models.PostStatusScheduled,
		ScheduledFor: sql.NullTime{Time: at, Valid: true},
		Platforms:    []string{models.PlatformInstagram},
		FinalCaption: "Hello",
	}
	_, err := f.posts.Create(context.Background(), post)
	require.NoError(t, err)
	return post
}

func TestPostgresClaimIsExclusive(t *testing.T) {
	f := newPGFixture(t)
	post := f.scheduled(t, time.Now().Add(time.Hour))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		won    int
		missed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.posts.Transition(context.Background(), post.ID, models.StatusChange{
				From: models.PostStatusScheduled,
				To:   models.PostStatusPosting,
				At:   time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, ErrNoRowsAffected)
				missed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, 7, missed)
}

func TestPostgresTransitionWritesOutcomeColumns(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	post := f.scheduled(t, time.Now().Add(time.Hour))

	_, err := f.posts.Transition(ctx, post.ID, models.StatusChange{From: "scheduled", To: "posting", At: time.Now()})
	require.NoError(t, err)
	failed, err := f.posts.Transition(ctx, post.ID, models.StatusChange{From: "posting", To: "failed", At: time.Now(), ErrorMessage: "boom"})
	require.NoError(t, err)
	assert.Equal(t, "boom", failed.ErrorMessage.String)
	assert.False(t, failed.PostedAt.Valid)

	_, err = f.posts.Transition(ctx, post.ID, models.StatusChange{From: "failed", To: "posting", At: time.Now()})
	require.NoError(t, err)
	postedAt := time.Now().UTC().Truncate(time.Millisecond)
	posted, err := f.posts.Transition(ctx, post.ID, models.StatusChange{From: "posting", To: "posted", At: postedAt})
	require.NoError(t, err)
	assert.False(t, posted.ErrorMessage.Valid)
	assert.True(t, posted.PostedAt.Time.Equal(postedAt))

	_, err = f.posts.Transition(ctx, post.ID, models.StatusChange{From: "posting", To: "posted", At: time.Now()})
	assert.ErrorIs(t, err, ErrNoRowsAffected)
}

func TestPostgresClaimRejectsMovedSchedule(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	at := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	post := f.scheduled(t, at)

	later := at.Add(24 * time.Hour)
	_, err := f.posts.Update(ctx, post.ID, models.PostStatusScheduled, &models.PostChanges{ScheduledFor: &later})
	require.NoError(t, err)

	_, err = f.posts.Transition(ctx, post.ID, models.StatusChange{
		From:         models.PostStatusScheduled,
		To:           models.PostStatusPosting,
		At:           time.Now(),
		ScheduledFor: &post.ScheduledFor,
	})
	assert.ErrorIs(t, err, ErrNoRowsAffected)

	current := sql.NullTime{Time: later, Valid: true}
	claimed, err := f.posts.Transition(ctx, post.ID, models.StatusChange{
		From:         models.PostStatusScheduled,
		To:           models.PostStatusPosting,
		At:           time.Now(),
		ScheduledFor: &current,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosting, claimed.Status)
}

func TestPostgresListDueWindow(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	base := time.Date(2031, 3, 1, 10, 0, 0, 0, time.UTC)

	inside := f.scheduled(t, base.Add(3*time.Minute))
	f.scheduled(t, base.Add(-time.Minute))
	f.scheduled(t, base.Add(6*time.Minute))

	draft := &models.Post{BrandID: f.brandID, MediaID: f.mediaID, Status: models.PostStatusDraft,
		ScheduledFor: sql.NullTime{Time: base.Add(time.Minute), Valid: true}}
	_, err := f.posts.Create(ctx, draft)
	require.NoError(t, err)

	due, err := f.posts.ListDue(ctx, base, base.Add(5*time.Minute))
	require.NoError(t, err)

	var ids []int64
	for _, p := range due {
		if p.BrandID == f.brandID {
			ids = append(ids, p.ID)
		}
	}
	assert.Equal(t, []int64{inside.ID}, ids)
}

func TestPostgresUpdateRequiresExpectedStatus(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	post := f.scheduled(t, time.Now().Add(time.Hour))

	caption := "Edited"
	_, err := f.posts.Update(ctx, post.ID, models.PostStatusDraft, &models.PostChanges{FinalCaption: &caption})
	assert.ErrorIs(t, err, ErrNoRowsAffected)

	updated, err := f.posts.Update(ctx, post.ID, models.PostStatusScheduled, &models.PostChanges{
		FinalCaption: &caption,
		Platforms:    []string{"facebook", "pinterest"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.FinalCaption)
	assert.Equal(t, []string{"facebook", "pinterest"}, updated.Platforms)
	assert.True(t, updated.ScheduledFor.Valid)
}

func TestPostgresOwnerScoping(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	post := f.scheduled(t, time.Now().Add(time.Hour))

	got, err := f.posts.GetOwned(ctx, f.userID+1000000, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, f.posts.Remove(ctx, f.userID+1000000, post.ID), ErrNoRowsAffected)
	require.NoError(t, f.posts.Remove(ctx, f.userID, post.ID))

	got, err = f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresActiveCredentialLookup(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	accounts := NewSocialAccountRepository(f.db)

	igID, err := accounts.Upsert(ctx, &models.SocialAccount{BrandID: f.brandID, Platform: "instagram", AccountID: "ig", AccessToken: "enc-ig"})
	require.NoError(t, err)
	_, err = accounts.Upsert(ctx, &models.SocialAccount{BrandID: f.brandID, Platform: "facebook", AccountID: "fb", AccessToken: "enc-fb"})
	require.NoError(t, err)
	require.NoError(t, accounts.SetActive(ctx, f.userID, igID, false))

	active, err := accounts.ListActiveForBrand(ctx, f.brandID, []string{"instagram", "facebook"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "facebook", active[0].Platform)
	assert.Equal(t, "enc-fb", active[0].AccessToken)

	// reconnecting reactivates the row
	again, err := accounts.Upsert(ctx, &models.SocialAccount{BrandID: f.brandID, Platform: "instagram", AccountID: "ig2", AccessToken: "enc-ig2"})
	require.NoError(t, err)
	assert.Equal(t, igID, again)
}
