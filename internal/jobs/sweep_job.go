package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// SweepJob finds scheduled posts that are due and dispatches each one
// through the shared publisher. Several sweeps may overlap, in this process
// or another; the claim decides which one dispatches a post.
type SweepJob struct {
	pr        repository.PostRepository
	publisher *service.Publisher
	cfg       config.Sweep
	now       func() time.Time
}

func NewSweepJob(pr repository.PostRepository, publisher *service.Publisher, cfg config.Sweep) *SweepJob {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = config.DefaultSweepLookback
	}
	return &SweepJob{
		pr:        pr,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RunScheduled is the cron entry point.
func (j *SweepJob) RunScheduled() {
	if _, err := j.Run(context.Background()); err != nil {
		slog.Error("sweep failed", "error", err)
	}
}

// Run sweeps the window [now-lookback, now+lookahead]. A failing post never
// stops the others; every outcome lands in the summary. Posts skipped on
// timeout or release stay scheduled and the next sweep picks them up through
// the lookback.
func (j *SweepJob) Run(ctx context.Context) (transfer.SweepSummary, error) {
	var summary transfer.SweepSummary

	started := time.Now()
	sweepRunsTotal.Inc()
	defer func() {
		sweepDuration.Observe(time.Since(started).Seconds())
		sweepLastRun.SetToCurrentTime()
	}()

	ctx, cancel := context.WithTimeout(ctx, j.cfg.Timeout)
	defer cancel()

	now := j.now()
	from := now.Add(-j.cfg.Lookback)
	to := now.Add(j.cfg.Lookahead)

	posts, err := j.pr.ListDue(ctx, from, to)
	if err != nil {
		return summary, &service.StoreError{Op: "list due posts", Err: err}
	}
	if len(posts) == 0 {
		return summary, nil
	}
	slog.Info("sweep found due posts", "count", len(posts), "from", from, "to", to)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	semaphore := make(chan struct{}, j.cfg.Concurrency)

	record := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case "posted":
			summary.Processed++
			summary.Successful++
		case "failed":
			summary.Processed++
			summary.Failed++
		default:
			summary.Skipped++
		}
		sweepPostsTotal.WithLabelValues(outcome).Inc()
	}

	for i, post := range posts {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			slog.Warn("sweep ran out of time", "left_untouched", len(posts)-i)
			for range posts[i:] {
				record("skipped")
			}
			wg.Wait()
			return summary, nil
		}

		wg.Add(1)
		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()
			record(j.publish(ctx, post))
		}(post)
	}

	wg.Wait()
	slog.Info("sweep finished",
		"processed", summary.Processed,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped)
	return summary, nil
}

func (j *SweepJob) publish(ctx context.Context, post *models.Post) string {
	result, err := j.publisher.Publish(ctx, post, models.TriggerSweep)

	var conflict *service.ConflictError
	switch {
	case err == nil:
		return "posted"
	case result == nil && errors.As(err, &conflict):
		slog.Info("post claimed elsewhere", "post_id", post.ID, "error", err)
		return "skipped"
	case errors.Is(err, service.ErrDispatchCanceled):
		return "skipped"
	default:
		slog.Info("sweep could not publish post", "post_id", post.ID, "error", err)
		return "failed"
	}
}
