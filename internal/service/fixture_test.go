package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository/memory"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []*transfer.PublishRequest
	fn    func(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformOutcome, error)
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformOutcome, error) {
	d.mu.Lock()
	d.calls = append(d.calls, req)
	fn := d.fn
	d.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	outcomes := make([]transfer.PlatformOutcome, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		outcomes = append(outcomes, transfer.PlatformOutcome{Platform: p, Success: true})
	}
	return outcomes, nil
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fixture struct {
	store      *memory.Store
	engine     *StatusEngine
	dispatcher *fakeDispatcher
	publisher  *Publisher
	posts      PostService
	userID     int64
	brandID    int64
	mediaID    int64
}

// newFixture sets up one user owning a brand with instagram and facebook
// connected, and one uploaded image.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	f := &fixture{store: store, userID: 7, dispatcher: &fakeDispatcher{}}

	var err error
	f.brandID, err = store.Brands().Create(ctx, &models.Brand{UserID: f.userID, Name: "Acme"})
	require.NoError(t, err)

	f.mediaID, err = store.MediaAssets().Create(ctx, &models.MediaAsset{
		UserID:    f.userID,
		FileURL:   "https://cdn.example.com/a.jpg",
		MediaType: models.MediaTypeImage,
	})
	require.NoError(t, err)

	f.connect(t, f.brandID, models.PlatformInstagram)
	f.connect(t, f.brandID, models.PlatformFacebook)

	f.engine = NewStatusEngine(store.Posts())
	resolver := NewCredentialResolver(testSecret, store.SocialAccounts())
	f.publisher = NewPublisher(f.engine, resolver, f.dispatcher, store.MediaAssets(), store.PostingHistory())
	f.posts = NewPostService(store.Posts(), store.Brands(), store.MediaAssets(), store.PostingHistory(),
		f.engine, f.publisher, nil, nil)
	return f
}

func (f *fixture) connect(t *testing.T, brandID int64, platform string) {
	t.Helper()
	token, err := utils.Encrypt("token-"+platform, testSecret)
	require.NoError(t, err)
	_, err = f.store.SocialAccounts().Upsert(context.Background(), &models.SocialAccount{
		BrandID:     brandID,
		Platform:    platform,
		AccountID:   "acct-" + platform,
		AccessToken: token,
	})
	require.NoError(t, err)
}

// seed inserts a post directly, bypassing user-facing validation.
func (f *fixture) seed(t *testing.T, status string, at time.Time, platforms ...string) *models.Post {
	t.Helper()
	post := &models.Post{
		BrandID:      f.brandID,
		MediaID:      f.mediaID,
		Status:       status,
		Platforms:    platforms,
		FinalCaption: "Hello",
	}
	if !at.IsZero() {
		post.ScheduledFor = sql.NullTime{Time: at, Valid: true}
	}
	_, err := f.store.Posts().Create(context.Background(), post)
	require.NoError(t, err)
	return post
}

func (f *fixture) load(t *testing.T, id int64) *models.Post {
	t.Helper()
	post, err := f.store.Posts().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, post)
	return post
}
