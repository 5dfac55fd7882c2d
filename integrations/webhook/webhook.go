// Package webhook delivers progression notifications to configured
// HTTP endpoints. The Sink doubles as an engine.NotificationGateway
// and an analytics Hook, so one set of endpoints can receive both
// notification and event traffic.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"progresskit/core"
)

// Sink posts domain events to configured HTTP endpoints.
// It is synchronous for determinism; keep handlers fast or wrap with buffering if needed.
type Sink struct {
	client    *http.Client
	endpoints []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

func (s *Sink) post(ctx context.Context, e core.Event) error {
	if len(s.endpoints) == 0 {
		return nil
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	var errs []error
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 400 {
			errs = append(errs, fmt.Errorf("webhook %s returned %d", ep, resp.StatusCode))
		}
	}
	return errors.Join(errs...)
}

// NotifyLevelUp implements engine.NotificationGateway.
func (s *Sink) NotifyLevelUp(ctx context.Context, ev core.Event) error {
	return s.post(ctx, ev)
}

// NotifyAchievementUnlocked implements engine.NotificationGateway.
func (s *Sink) NotifyAchievementUnlocked(ctx context.Context, ev core.Event) error {
	return s.post(ctx, ev)
}

// OnEvent implements the analytics Hook; delivery errors are dropped
// since event fan-out is fire-and-forget.
func (s *Sink) OnEvent(e core.Event) {
	_ = s.post(context.Background(), e)
}
