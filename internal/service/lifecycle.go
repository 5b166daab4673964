package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// transitions is the complete set of lifecycle edges. posted has no
// outgoing edges.
var transitions = map[string][]string{
	models.PostStatusDraft:     {models.PostStatusScheduled, models.PostStatusPosting},
	models.PostStatusScheduled: {models.PostStatusScheduled, models.PostStatusPosting},
	models.PostStatusPosting:   {models.PostStatusPosted, models.PostStatusFailed},
	models.PostStatusFailed:    {models.PostStatusPosting},
}

func IsStatus(status string) bool {
	_, ok := transitions[status]
	return ok || status == models.PostStatusPosted
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusEngine owns every write to posts.status. Each write is a
// compare-and-swap on the status the caller last observed.
type StatusEngine struct {
	pr  repository.PostRepository
	now func() time.Time
}

func NewStatusEngine(pr repository.PostRepository) *StatusEngine {
	return &StatusEngine{pr: pr, now: time.Now}
}

func (e *StatusEngine) Now() time.Time {
	return e.now()
}

// Transition moves post to status `to` and refreshes *post from the stored
// row. errMsg is recorded only when `to` is failed.
func (e *StatusEngine) Transition(ctx context.Context, post *models.Post, to, errMsg string) error {
	if !CanTransition(post.Status, to) {
		return illegal(post.Status, to)
	}
	return e.write(ctx, post, models.StatusChange{From: post.Status, To: to, ErrorMessage: errMsg})
}

// Claim takes exclusive dispatch rights on a post. The claim also fails if
// scheduled_for moved since the post was read, so a rescheduled post is not
// sent at its old time.
func (e *StatusEngine) Claim(ctx context.Context, post *models.Post) error {
	if !CanTransition(post.Status, models.PostStatusPosting) {
		return illegal(post.Status, models.PostStatusPosting)
	}
	observed := post.ScheduledFor
	return e.write(ctx, post, models.StatusChange{
		From:         post.Status,
		To:           models.PostStatusPosting,
		ScheduledFor: &observed,
	})
}

func (e *StatusEngine) Succeed(ctx context.Context, post *models.Post) error {
	return e.Transition(ctx, post, models.PostStatusPosted, "")
}

func (e *StatusEngine) Fail(ctx context.Context, post *models.Post, cause string) error {
	return e.Transition(ctx, post, models.PostStatusFailed, cause)
}

// Release undoes a claim whose dispatch never completed, returning the post
// to the status it had before the claim.
func (e *StatusEngine) Release(ctx context.Context, post *models.Post, prior string) error {
	if post.Status != models.PostStatusPosting || !CanTransition(prior, models.PostStatusPosting) {
		return &ValidationError{Field: "status", Message: "nothing to release", Err: ErrIllegalTransition}
	}
	return e.write(ctx, post, models.StatusChange{From: models.PostStatusPosting, To: prior})
}

func (e *StatusEngine) write(ctx context.Context, post *models.Post, change models.StatusChange) error {
	change.At = e.now()
	updated, err := e.pr.Transition(ctx, post.ID, change)
	if err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return &ConflictError{PostID: post.ID, Expected: change.From}
		}
		return &StoreError{Op: fmt.Sprintf("set post %d %s", post.ID, change.To), Err: err}
	}
	*post = *updated
	return nil
}
