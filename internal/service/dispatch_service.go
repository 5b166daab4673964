package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const maxWebhookBody = 1 << 20

type Dispatcher interface {
	Dispatch(ctx context.Context, req *transfer.PublishRequest) ([]transfer.PlatformOutcome, error)
}

type webhookDispatcher struct {
	url     string
	secret  string
	timeout time.Duration
	client  *http.Client
}

func NewWebhookDispatcher(cfg config.Publishing) Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &webhookDispatcher{
		url:     cfg.WebhookURL,
		secret:  cfg.WebhookSecret,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Dispatch makes exactly one call to the publishing workflow. It does not
// retry. A cancelled ctx yields ErrDispatchCanceled; an expired call
// deadline is a DispatchError like any other failure.
func (d *webhookDispatcher) Dispatch(ctx context.Context, pr *transfer.PublishRequest) ([]transfer.PlatformOutcome, error) {
	if d.url == "" {
		return nil, &DispatchError{Reason: "publishing webhook is not configured"}
	}

	payload, err := json.Marshal(pr)
	if err != nil {
		return nil, &DispatchError{Reason: "encode request", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &DispatchError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", pr.AttemptID)
	if d.secret != "" {
		req.Header.Set("X-Webhook-Secret", d.secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, d.transportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if err != nil {
		return nil, d.transportError(ctx, callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Info("publishing workflow rejected request", "post_id", pr.PostID, "status", resp.StatusCode)
		return nil, &DispatchError{StatusCode: resp.StatusCode, Reason: snippet(body)}
	}

	var result transfer.PublishResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &DispatchError{StatusCode: resp.StatusCode, Reason: "malformed response", Err: err}
	}

	if (result.Success != nil && !*result.Success) || result.Error != "" {
		reason := result.Error
		if reason == "" {
			reason = result.Message
		}
		if reason == "" {
			reason = "workflow reported failure"
		}
		return nil, &DispatchError{StatusCode: resp.StatusCode, Reason: reason}
	}

	var failed []string
	for _, r := range result.Results {
		if !r.Success {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Platform, r.Error))
		}
	}
	if len(failed) > 0 {
		return nil, &DispatchError{StatusCode: resp.StatusCode, Reason: strings.Join(failed, "; ")}
	}

	if len(result.Results) > 0 {
		return result.Results, nil
	}
	outcomes := make([]transfer.PlatformOutcome, 0, len(pr.Platforms))
	for _, p := range pr.Platforms {
		outcomes = append(outcomes, transfer.PlatformOutcome{Platform: p, Success: true})
	}
	return outcomes, nil
}

func (d *webhookDispatcher) transportError(parent, call context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return ErrDispatchCanceled
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &DispatchError{Reason: fmt.Sprintf("no response within %s", d.timeout), Err: err}
	}
	return &DispatchError{Reason: "request failed", Err: err}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
