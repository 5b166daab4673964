package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// Enqueuer arranges a delayed dispatch for a scheduled post. The sweep is
// the fallback, so enqueue failures are logged and never fail the request.
type Enqueuer interface {
	EnqueuePost(ctx context.Context, post *models.Post) error
}

type PostService interface {
	CreateDraft(ctx context.Context, userID int64, dc *transfer.DraftCreation) (*models.Post, error)
	Schedule(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error)
	Edit(ctx context.Context, userID, postID int64, edit *transfer.PostEdit) (*models.Post, error)
	Delete(ctx context.Context, userID, postID int64) error
	PostNow(ctx context.Context, userID, postID int64, confirm bool) (*PublishResult, error)
	Retry(ctx context.Context, userID, postID int64, confirm bool) (*PublishResult, error)
	Reconcile(ctx context.Context, userID, postID int64, req *transfer.ReconcileRequest) (*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	List(ctx context.Context, userID, brandID int64, status string) ([]*models.Post, error)
	History(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error)
}

type postService struct {
	pr        repository.PostRepository
	br        repository.BrandRepository
	ma        repository.MediaAssetRepository
	ph        repository.PostingHistoryRepository
	engine    *StatusEngine
	publisher *Publisher
	captions  CaptionGenerator
	queue     Enqueuer
}

// NewPostService wires the user-facing post actions. captions and queue
// may be nil.
func NewPostService(
	pr repository.PostRepository,
	br repository.BrandRepository,
	ma repository.MediaAssetRepository,
	ph repository.PostingHistoryRepository,
	engine *StatusEngine,
	publisher *Publisher,
	captions CaptionGenerator,
	queue Enqueuer) PostService {
	return &postService{
		pr:        pr,
		br:        br,
		ma:        ma,
		ph:        ph,
		engine:    engine,
		publisher: publisher,
		captions:  captions,
		queue:     queue,
	}
}

func (s *postService) CreateDraft(ctx context.Context, userID int64, dc *transfer.DraftCreation) (*models.Post, error) {
	if dc == nil {
		return nil, invalid("", "post data is required")
	}

	brand, err := s.br.GetByID(ctx, userID, dc.BrandID)
	if err != nil {
		return nil, &StoreError{Op: "load brand", Err: err}
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %d: %w", dc.BrandID, ErrNotFound)
	}

	owned, err := s.ma.CheckByUserID(ctx, dc.MediaID, userID)
	if err != nil {
		return nil, &StoreError{Op: "check media", Err: err}
	}
	if !owned {
		return nil, fmt.Errorf("media %d: %w", dc.MediaID, ErrNotFound)
	}

	platforms, err := normalizePlatforms(dc.Platforms)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		BrandID:      dc.BrandID,
		MediaID:      dc.MediaID,
		Status:       models.PostStatusDraft,
		Platforms:    platforms,
		FinalCaption: strings.TrimSpace(dc.FinalCaption),
	}

	if dc.GenerateCaption && s.captions != nil {
		media, err := s.ma.GetByID(ctx, dc.MediaID)
		if err != nil {
			return nil, &StoreError{Op: "load media", Err: err}
		}
		post.GeneratedCaption = s.captions.Generate(ctx, brand, media)
		if post.FinalCaption == "" {
			post.FinalCaption = post.GeneratedCaption
		}
	}

	if _, err := s.pr.Create(ctx, post); err != nil {
		return nil, &StoreError{Op: "create post", Err: err}
	}
	return post, nil
}

func (s *postService) Schedule(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error) {
	if req == nil {
		return nil, invalid("", "schedule data is required")
	}
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(post.Status, models.PostStatusScheduled) {
		return nil, illegal(post.Status, models.PostStatusScheduled)
	}

	at, err := s.futureTime(req.ScheduledFor)
	if err != nil {
		return nil, err
	}

	platforms := post.Platforms
	if req.Platforms != nil {
		if platforms, err = normalizePlatforms(req.Platforms); err != nil {
			return nil, err
		}
	}
	if len(platforms) == 0 {
		return nil, invalid("platforms", "at least one platform is required")
	}

	status := models.PostStatusScheduled
	changes := &models.PostChanges{
		Status:       &status,
		Platforms:    platforms,
		ScheduledFor: &at,
	}
	if req.FinalCaption != nil {
		caption := strings.TrimSpace(*req.FinalCaption)
		changes.FinalCaption = &caption
	}

	updated, err := s.update(ctx, post, changes)
	if err != nil {
		return nil, err
	}
	s.enqueue(ctx, updated)
	return updated, nil
}

func (s *postService) Edit(ctx context.Context, userID, postID int64, edit *transfer.PostEdit) (*models.Post, error) {
	if edit == nil {
		return nil, invalid("", "edit data is required")
	}
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	switch post.Status {
	case models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed:
	default:
		return nil, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("a %s post cannot be edited", post.Status),
			Err:     ErrIllegalTransition,
		}
	}

	changes := &models.PostChanges{}
	if edit.FinalCaption != nil {
		caption := strings.TrimSpace(*edit.FinalCaption)
		changes.FinalCaption = &caption
	}

	platforms := post.Platforms
	if edit.Platforms != nil {
		if platforms, err = normalizePlatforms(edit.Platforms); err != nil {
			return nil, err
		}
		changes.Platforms = platforms
	}

	if edit.ScheduledFor != nil {
		if !CanTransition(post.Status, models.PostStatusScheduled) {
			return nil, illegal(post.Status, models.PostStatusScheduled)
		}
		at, err := s.futureTime(*edit.ScheduledFor)
		if err != nil {
			return nil, err
		}
		status := models.PostStatusScheduled
		changes.Status = &status
		changes.ScheduledFor = &at
	}

	// Only drafts may be left without a platform.
	nextStatus := post.Status
	if changes.Status != nil {
		nextStatus = *changes.Status
	}
	if nextStatus != models.PostStatusDraft && len(platforms) == 0 {
		return nil, invalid("platforms", "at least one platform is required")
	}

	updated, err := s.update(ctx, post, changes)
	if err != nil {
		return nil, err
	}
	if changes.ScheduledFor != nil {
		s.enqueue(ctx, updated)
	}
	return updated, nil
}

func (s *postService) Delete(ctx context.Context, userID, postID int64) error {
	err := s.pr.Remove(ctx, userID, postID)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return &StoreError{Op: "delete post", Err: err}
	}
	return nil
}

func (s *postService) PostNow(ctx context.Context, userID, postID int64, confirm bool) (*PublishResult, error) {
	return s.dispatchNow(ctx, userID, postID, confirm, false)
}

func (s *postService) Retry(ctx context.Context, userID, postID int64, confirm bool) (*PublishResult, error) {
	return s.dispatchNow(ctx, userID, postID, confirm, true)
}

func (s *postService) dispatchNow(ctx context.Context, userID, postID int64, confirm, retry bool) (*PublishResult, error) {
	if !confirm {
		return nil, invalid("confirm", "posting immediately must be confirmed")
	}
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if retry && post.Status != models.PostStatusFailed {
		return nil, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("only failed posts can be retried, this one is %s", post.Status),
			Err:     ErrIllegalTransition,
		}
	}
	if !CanTransition(post.Status, models.PostStatusPosting) {
		return nil, illegal(post.Status, models.PostStatusPosting)
	}
	if strings.TrimSpace(post.FinalCaption) == "" {
		return nil, invalid("final_caption", "a caption is required to post")
	}
	if len(post.Platforms) == 0 {
		return nil, invalid("platforms", "at least one platform is required")
	}

	return s.publisher.Publish(ctx, post, models.TriggerManual)
}

// Reconcile settles a post left in posting without a recorded outcome.
func (s *postService) Reconcile(ctx context.Context, userID, postID int64, req *transfer.ReconcileRequest) (*models.Post, error) {
	if req == nil {
		return nil, invalid("", "reconcile data is required")
	}
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPosting {
		return nil, illegal(post.Status, req.Outcome)
	}

	errMsg := ""
	switch req.Outcome {
	case models.PostStatusPosted:
	case models.PostStatusFailed:
		errMsg = strings.TrimSpace(req.ErrorMessage)
		if errMsg == "" {
			errMsg = "marked failed during reconciliation"
		}
	default:
		return nil, invalid("outcome", "must be posted or failed")
	}

	if err := s.engine.Transition(ctx, post, req.Outcome, errMsg); err != nil {
		return nil, err
	}

	_, err = s.ph.Create(ctx, &models.PostingHistory{
		BrandID:      post.BrandID,
		PostID:       post.ID,
		AttemptID:    uuid.NewString(),
		Trigger:      models.TriggerReconcile,
		Status:       post.Status,
		ErrorMessage: errMsg,
	})
	if err != nil {
		slog.Error("could not save posting history", "post_id", post.ID, "error", err)
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	return s.owned(ctx, userID, postID)
}

func (s *postService) List(ctx context.Context, userID, brandID int64, status string) ([]*models.Post, error) {
	if status != "" && !IsStatus(status) {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	posts, err := s.pr.ListByBrand(ctx, userID, brandID, status)
	if err != nil {
		return nil, &StoreError{Op: "list posts", Err: err}
	}
	return posts, nil
}

func (s *postService) History(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error) {
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return nil, err
	}
	history, err := s.ph.ListByPostID(ctx, postID)
	if err != nil {
		return nil, &StoreError{Op: "list posting history", Err: err}
	}
	return history, nil
}

func (s *postService) owned(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetOwned(ctx, userID, postID)
	if err != nil {
		return nil, &StoreError{Op: "load post", Err: err}
	}
	if post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	return post, nil
}

func (s *postService) update(ctx context.Context, post *models.Post, changes *models.PostChanges) (*models.Post, error) {
	updated, err := s.pr.Update(ctx, post.ID, post.Status, changes)
	if errors.Is(err, repository.ErrNoRowsAffected) {
		return nil, &ConflictError{PostID: post.ID, Expected: post.Status}
	}
	if err != nil {
		return nil, &StoreError{Op: "update post", Err: err}
	}
	return updated, nil
}

func (s *postService) futureTime(at time.Time) (time.Time, error) {
	if at.IsZero() {
		return time.Time{}, invalid("scheduled_for", "a time is required")
	}
	if !at.After(s.engine.Now()) {
		return time.Time{}, invalid("scheduled_for", "must be in the future")
	}
	return at.UTC(), nil
}

func (s *postService) enqueue(ctx context.Context, post *models.Post) {
	if s.queue == nil {
		return
	}
	if err := s.queue.EnqueuePost(ctx, post); err != nil {
		slog.Warn("could not enqueue scheduled post, the sweep will pick it up", "post_id", post.ID, "error", err)
	}
}

func illegal(from, to string) *ValidationError {
	return &ValidationError{
		Field:   "status",
		Message: fmt.Sprintf("cannot move a %s post to %s", from, to),
		Err:     ErrIllegalTransition,
	}
}

// normalizePlatforms drops duplicates and rejects unknown platforms.
func normalizePlatforms(platforms []string) ([]string, error) {
	seen := make(map[string]bool, len(platforms))
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if !models.IsPlatform(p) {
			return nil, invalid("platforms", fmt.Sprintf("unsupported platform %q", p))
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
