package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

type Worker struct {
	pr        repository.PostRepository
	publisher *service.Publisher
}

func NewWorker(pr repository.PostRepository, publisher *service.Publisher) *Worker {
	return &Worker{pr: pr, publisher: publisher}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishPost, w.HandlePublishPostTask)
}

// HandlePublishPostTask dispatches the post if it is still scheduled for the
// time the task was created with. Dispatch failures are recorded on the
// post and never retried by the queue.
func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decoding payload: %v: %w", err, asynq.SkipRetry)
	}
	log := slog.With("post_id", payload.PostID)

	post, err := w.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		log.Info("post deleted before its publish task ran")
		return nil
	}
	if post.Status != models.PostStatusScheduled {
		log.Info("post is no longer scheduled", "status", post.Status)
		return nil
	}
	if !post.ScheduledFor.Valid || !post.ScheduledFor.Time.Equal(payload.ScheduledFor) {
		log.Info("stale publish task", "task_time", payload.ScheduledFor)
		return nil
	}

	_, err = w.publisher.Publish(ctx, post, models.TriggerQueue)

	var (
		conflict *service.ConflictError
		dispatch *service.DispatchError
		missing  *service.MissingCredentialError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict):
		log.Info("post claimed elsewhere")
		return nil
	case errors.As(err, &dispatch), errors.As(err, &missing), post.Status == models.PostStatusFailed:
		return nil
	default:
		return err
	}
}
