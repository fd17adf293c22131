// Package notify delivers status-change notifications. Suppression policy
// (cooldown, quiet hours, viewer threshold) lives in PolicySink, in front of
// the concrete sink.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

type Kind string

const (
	KindWentLive    Kind = "went_live"
	KindWentOffline Kind = "went_offline"
)

// Request is one notification. Tag groups requests for deduplication.
type Request struct {
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	ID      string    `json:"id"`
	Tag     string    `json:"tag"`
	Viewers int       `json:"viewers"`
	At      time.Time `json:"at"`
}

type Sink interface {
	Notify(ctx context.Context, req Request) error
}

// LogSink writes notifications to the log.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Notify(_ context.Context, req Request) error {
	s.logger.Info(req.Title,
		logger.String("kind", string(req.Kind)),
		logger.String("channel", req.ID),
		logger.String("body", req.Body),
		logger.Int("viewers", req.Viewers))
	return nil
}

// WebhookSink POSTs each notification as JSON.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *WebhookSink) Notify(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer utils.Close(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
