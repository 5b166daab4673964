// Package queue schedules one delayed asynq task per scheduled post so the
// post is dispatched on time even between sweeps.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
)

const TaskTypePublishPost = "post:publish"

// PublishPostPayload carries the schedule the task was created for. A
// task whose time no longer matches the post is stale and is dropped.
type PublishPostPayload struct {
	PostID       int64     `json:"post_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

type Client struct {
	client *asynq.Client
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

func (c *Client) EnqueuePost(ctx context.Context, post *models.Post) error {
	if !post.ScheduledFor.Valid {
		return fmt.Errorf("post %d has no schedule", post.ID)
	}
	task, err := NewPublishPostTask(post.ID, post.ScheduledFor.Time)
	if err != nil {
		return err
	}

	at := post.ScheduledFor.Time
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.MaxRetry(0),
		asynq.TaskID(fmt.Sprintf("post-%d-%d", post.ID, at.UnixNano())),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "post_id", post.ID, "process_at", at)
	return nil
}

func NewPublishPostTask(postID int64, scheduledFor time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID, ScheduledFor: scheduledFor})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePublishPost, payload), nil
}
