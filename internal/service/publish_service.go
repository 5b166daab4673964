package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PublishResult struct {
	AttemptID string
	Post      *models.Post
	Outcomes  []transfer.PlatformOutcome
}

// Publisher runs the claim → resolve → dispatch → commit protocol shared by
// the sweep, the delayed queue task and manual "post now".
type Publisher struct {
	engine *StatusEngine
	cr     CredentialResolver
	d      Dispatcher
	ma     repository.MediaAssetRepository
	ph     repository.PostingHistoryRepository
}

func NewPublisher(
	engine *StatusEngine,
	cr CredentialResolver,
	d Dispatcher,
	ma repository.MediaAssetRepository,
	ph repository.PostingHistoryRepository) *Publisher {
	return &Publisher{
		engine: engine,
		cr:     cr,
		d:      d,
		ma:     ma,
		ph:     ph,
	}
}

// Publish dispatches post once. post must be the caller's latest read; it
// is updated in place to the committed row.
//
// The claim is written before any network call and the outcome after it.
// Outcome writes ignore ctx cancellation so a completed dispatch is always
// recorded.
func (p *Publisher) Publish(ctx context.Context, post *models.Post, trigger string) (*PublishResult, error) {
	prior := post.Status
	if err := p.engine.Claim(ctx, post); err != nil {
		return nil, err
	}

	result := &PublishResult{AttemptID: uuid.NewString(), Post: post}
	commitCtx := context.WithoutCancel(ctx)
	log := slog.With("post_id", post.ID, "brand_id", post.BrandID, "attempt_id", result.AttemptID, "trigger", trigger)

	creds, err := p.cr.Resolve(ctx, post.BrandID, post.Platforms)
	if err != nil {
		var missing *MissingCredentialError
		if errors.As(err, &missing) {
			return result, p.fail(commitCtx, log, result, trigger, err)
		}
		return result, p.release(commitCtx, log, post, prior, err)
	}

	media, err := p.ma.GetByID(ctx, post.MediaID)
	if err != nil {
		return result, p.release(commitCtx, log, post, prior, &StoreError{Op: "load media", Err: err})
	}
	if media == nil {
		return result, p.fail(commitCtx, log, result, trigger, fmt.Errorf("media %d no longer exists", post.MediaID))
	}

	started := time.Now()
	outcomes, err := p.d.Dispatch(ctx, &transfer.PublishRequest{
		PostID:      post.ID,
		AttemptID:   result.AttemptID,
		Caption:     post.FinalCaption,
		MediaURL:    media.FileURL,
		MediaType:   media.MediaType,
		Platforms:   post.Platforms,
		Credentials: creds,
	})
	dispatchDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())

	if errors.Is(err, ErrDispatchCanceled) {
		dispatchesTotal.WithLabelValues(trigger, "canceled").Inc()
		return result, p.release(commitCtx, log, post, prior, err)
	}
	if err != nil {
		return result, p.fail(commitCtx, log, result, trigger, err)
	}

	result.Outcomes = outcomes
	if err := p.engine.Succeed(commitCtx, post); err != nil {
		log.Error("dispatch succeeded but status write failed", "error", err)
		return result, err
	}
	dispatchesTotal.WithLabelValues(trigger, "posted").Inc()
	p.record(commitCtx, log, result, trigger, models.PostStatusPosted, "")
	log.Info("post published", "platforms", post.Platforms)
	return result, nil
}

func (p *Publisher) fail(ctx context.Context, log *slog.Logger, result *PublishResult, trigger string, cause error) error {
	dispatchesTotal.WithLabelValues(trigger, "failed").Inc()
	log.Info("post failed", "error", cause)

	if err := p.engine.Fail(ctx, result.Post, cause.Error()); err != nil {
		log.Error("could not record failure", "error", err)
		return errors.Join(cause, err)
	}
	p.record(ctx, log, result, trigger, models.PostStatusFailed, cause.Error())
	return cause
}

// release hands the post back to its prior status when nothing was sent.
func (p *Publisher) release(ctx context.Context, log *slog.Logger, post *models.Post, prior string, cause error) error {
	log.Warn("releasing claim", "prior_status", prior, "error", cause)
	if err := p.engine.Release(ctx, post, prior); err != nil {
		log.Error("could not release claim", "error", err)
		return errors.Join(cause, err)
	}
	return cause
}

func (p *Publisher) record(ctx context.Context, log *slog.Logger, result *PublishResult, trigger, status, errMsg string) {
	_, err := p.ph.Create(ctx, &models.PostingHistory{
		BrandID:      result.Post.BrandID,
		PostID:       result.Post.ID,
		AttemptID:    result.AttemptID,
		Trigger:      trigger,
		Status:       status,
		ErrorMessage: errMsg,
	})
	if err != nil {
		log.Error("could not save posting history", "error", err)
	}
}
