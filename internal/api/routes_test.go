package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	job "github.com/maheshrc27/postpilot/internal/jobs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository/memory"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey     = "pp_0123456789abcdefghijklmnopqrstuv"
	testCronSecret = "cron-secret"
)

type testServer struct {
	app         *fiber.App
	store       *memory.Store
	webhookFail atomic.Bool
	webhookHits atomic.Int32
	mediaID     int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{store: memory.NewStore()}

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.webhookHits.Add(1)
		if ts.webhookFail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("workflow unavailable"))
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(webhook.Close)

	cfg := config.Config{
		SecretKey:  "handler-test-secret",
		CookieName: "postpilot_session",
		CronSecret: testCronSecret,
		Publishing: config.Publishing{WebhookURL: webhook.URL, Timeout: 5 * time.Second},
		Sweep:      config.Sweep{Lookahead: 5 * time.Minute, Timeout: 10 * time.Second, Concurrency: 2},
	}

	s := ts.store
	ctx := context.Background()
	_, err := s.ApiKeys().Create(ctx, &models.ApiKey{UserID: 1, ApiKey: testAPIKey})
	require.NoError(t, err)
	ts.mediaID, err = s.MediaAssets().Create(ctx, &models.MediaAsset{UserID: 1, FileURL: "https://cdn.example.com/a.jpg", MediaType: "image"})
	require.NoError(t, err)

	engine := service.NewStatusEngine(s.Posts())
	publisher := service.NewPublisher(engine, service.NewCredentialResolver(cfg.SecretKey, s.SocialAccounts()),
		service.NewWebhookDispatcher(cfg.Publishing), s.MediaAssets(), s.PostingHistory())
	captions := service.NewCaptionGenerator(cfg.Caption)
	apiKeys := service.NewApiKeyService(s.ApiKeys())

	ts.app = fiber.New()
	SetupRoutes(ts.app, Handlers{
		User:     handlers.NewUserHandler(service.NewUserService(s.Users(), s.Brands(), s.Posts(), s.ApiKeys())),
		ApiKeys:  handlers.NewApiKeyHandler(apiKeys),
		Brands:   handlers.NewBrandHandler(service.NewBrandService(s.Brands())),
		Accounts: handlers.NewPlatformHandler(service.NewPlatformService(cfg.SecretKey, s.Brands(), s.SocialAccounts())),
		Media:    handlers.NewMediaHandler(nil, service.NewCaptionService(s.Brands(), s.MediaAssets(), captions)),
		Posts: handlers.NewPostHandler(service.NewPostService(s.Posts(), s.Brands(), s.MediaAssets(), s.PostingHistory(),
			engine, publisher, captions, nil)),
		Sweep: handlers.NewSweepHandler(job.NewSweepJob(s.Posts(), publisher, cfg.Sweep), cfg.CronSecret),
	}, middleware.NewAuthMiddleware(cfg, apiKeys))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// brandWithAccounts creates a brand with instagram and facebook connected.
func (ts *testServer) brandWithAccounts(t *testing.T) int64 {
	t.Helper()
	status, brand := ts.do(t, http.MethodPost, "/api/brands", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, status)
	brandID := int64(brand["id"].(float64))

	for _, p := range []string{"instagram", "facebook"} {
		status, _ := ts.do(t, http.MethodPost, fmt.Sprintf("/api/brands/%d/accounts", brandID), map[string]any{
			"platform":     p,
			"account_id":   "acct-" + p,
			"access_token": "token-" + p,
		})
		require.Equal(t, http.StatusCreated, status)
	}
	return brandID
}

func (ts *testServer) draft(t *testing.T, brandID int64, platforms ...string) int64 {
	t.Helper()
	status, post := ts.do(t, http.MethodPost, "/api/posts", map[string]any{
		"brand_id":      brandID,
		"media_id":      ts.mediaID,
		"final_caption": "Hello",
		"platforms":     platforms,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "draft", post["status"])
	return int64(post["id"].(float64))
}

func TestRequiresCredentials(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/brands", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/brands", nil)
	req.Header.Set("X-API-Key", "pp_wrong")
	resp, err = ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	token, err := utils.IssueSessionToken("handler-test-secret", 1, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/brands", nil)
	req.AddCookie(&http.Cookie{Name: "postpilot_session", Value: token})
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	forged, err := utils.IssueSessionToken("another-secret", 1, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/brands", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestScheduleAndPostNowFlow(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)
	postID := ts.draft(t, brandID)
	path := fmt.Sprintf("/api/posts/%d", postID)

	status, body := ts.do(t, http.MethodPost, path+"/schedule", map[string]any{
		"scheduled_for": time.Now().Add(-time.Minute).Format(time.RFC3339),
		"platforms":     []string{"instagram"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "scheduled_for")

	status, body = ts.do(t, http.MethodPost, path+"/schedule", map[string]any{
		"scheduled_for": "2030-01-01T10:00:00Z",
		"platforms":     []string{"instagram", "facebook"},
		"final_caption": "Hello",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "scheduled", body["status"])
	assert.Equal(t, "2030-01-01T10:00:00Z", body["scheduled_for"])

	status, _ = ts.do(t, http.MethodPost, path+"/post-now", map[string]any{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Zero(t, ts.webhookHits.Load())

	status, body = ts.do(t, http.MethodPost, path+"/post-now", map[string]any{"confirm": true})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["attempt_id"])
	assert.Equal(t, "posted", body["post"].(map[string]any)["status"])
	assert.EqualValues(t, 1, ts.webhookHits.Load())

	status, _ = ts.do(t, http.MethodPost, path+"/post-now", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPatch, path, map[string]any{"final_caption": "too late"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDispatchFailureThenRetry(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)
	postID := ts.draft(t, brandID, "facebook")
	path := fmt.Sprintf("/api/posts/%d", postID)

	ts.webhookFail.Store(true)
	status, body := ts.do(t, http.MethodPost, path+"/post-now", map[string]any{"confirm": true})
	require.Equal(t, http.StatusBadGateway, status)
	post := body["post"].(map[string]any)
	assert.Equal(t, "failed", post["status"])
	assert.Contains(t, post["error_message"], "workflow unavailable")

	ts.webhookFail.Store(false)
	status, body = ts.do(t, http.MethodPost, path+"/retry", map[string]any{"confirm": true})
	require.Equal(t, http.StatusOK, status)
	post = body["post"].(map[string]any)
	assert.Equal(t, "posted", post["status"])
	assert.Nil(t, post["error_message"])
}

func TestMissingCredentialIsUnprocessable(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)
	postID := ts.draft(t, brandID, "pinterest")

	status, body := ts.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/post-now", postID), map[string]any{"confirm": true})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "pinterest")
	assert.Zero(t, ts.webhookHits.Load())

	status, body = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", body["status"])
}

func TestOtherUsersPostIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	otherBrand, err := ts.store.Brands().Create(ctx, &models.Brand{UserID: 2, Name: "Other"})
	require.NoError(t, err)
	post := &models.Post{BrandID: otherBrand, MediaID: ts.mediaID, Status: models.PostStatusDraft}
	_, err = ts.store.Posts().Create(ctx, post)
	require.NoError(t, err)

	status, _ := ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationRejectsUnknownPlatform(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)

	status, body := ts.do(t, http.MethodPost, "/api/posts", map[string]any{
		"brand_id":  brandID,
		"media_id":  ts.mediaID,
		"platforms": []string{"myspace"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestSweepTrigger(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)
	ctx := context.Background()

	post := &models.Post{
		BrandID:      brandID,
		MediaID:      ts.mediaID,
		Status:       models.PostStatusScheduled,
		Platforms:    []string{"instagram"},
		FinalCaption: "Hello",
	}
	post.ScheduledFor.Time = time.Now().Add(time.Minute)
	post.ScheduledFor.Valid = true
	_, err := ts.store.Posts().Create(ctx, post)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/internal/sweep", nil)
	req.Header.Set("X-Cron-Secret", testCronSecret)
	resp, err = ts.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, map[string]int{"processed": 1, "successful": 1, "failed": 0, "skipped": 0}, summary)

	status, got := ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "posted", got["status"])
}

func TestReconcileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	brandID := ts.brandWithAccounts(t)

	post := &models.Post{BrandID: brandID, MediaID: ts.mediaID, Status: models.PostStatusPosting, Platforms: []string{"instagram"}}
	_, err := ts.store.Posts().Create(context.Background(), post)
	require.NoError(t, err)

	status, body := ts.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/reconcile", post.ID), map[string]any{"outcome": "posted"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "posted", body["status"])
	assert.NotNil(t, body["posted_at"])
}

func TestAccountEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	userID, err := ts.store.Users().UpsertByEmail(ctx, &models.User{Email: "ana@example.com", Name: "Ana", GoogleID: "g-123"})
	require.NoError(t, err)
	token, err := utils.IssueSessionToken("handler-test-secret", userID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
	req.AddCookie(&http.Cookie{Name: "postpilot_session", Value: token})
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, float64(0), body["brands"])
	assert.Equal(t, float64(models.MaxApiKeysPerUser), body["api_key_limit"])
	assert.NotContains(t, body, "google_id")

	status, _ := ts.do(t, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListedApiKeysAreMasked(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/api_keys", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var keys []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&keys))
	require.Len(t, keys, 1)
	assert.Equal(t, utils.MaskAPIKey(testAPIKey), keys[0]["api_key"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "postpilot_sweep_runs_total")
}
