// Package upstream is the HTTP client for the streaming platform's channel API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

const (
	DefaultBaseURL      = "https://kick.com/api/v2"
	DefaultTimeout      = 15 * time.Second
	DefaultRetryBackoff = 2 * time.Second
	// DefaultRateLimitRetries is how many times a 429 is retried before giving up.
	DefaultRateLimitRetries = 1

	maxBodyBytes = 2 << 20
)

// ErrRateLimited is returned once 429 retries are exhausted.
var ErrRateLimited = errors.New("upstream: rate limited")

// StatusError reports a non-2xx, non-429 response.
type StatusError struct {
	ID   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: channel %s returned HTTP %d", e.ID, e.Code)
}

type Options struct {
	BaseURL          string
	HTTPClient       *http.Client
	Timeout          time.Duration
	UserAgent        string
	RetryBackoff     time.Duration
	RateLimitRetries int
	Metrics          metrics.Recorder
}

type Client struct {
	base      string
	http      *http.Client
	userAgent string
	backoff   time.Duration
	retries   int
	clock     clock.Clock
	logger    logger.Logger
	metrics   metrics.Recorder
}

func NewClient(opts Options, clk clock.Clock, log logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.RateLimitRetries < 0 {
		opts.RateLimitRetries = 0
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Client{
		base:      strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		userAgent: opts.UserAgent,
		backoff:   opts.RetryBackoff,
		retries:   opts.RateLimitRetries,
		clock:     clk,
		logger:    log,
		metrics:   opts.Metrics,
	}
}

// Channel fetches one channel. A 429 is retried after the backoff up to the
// configured ceiling, then reported as ErrRateLimited. Context errors are
// returned unwrapped so callers can tell cancellation from failure.
func (c *Client) Channel(ctx context.Context, id string) (*ChannelPayload, error) {
	endpoint := c.base + "/channels/" + url.PathEscape(id)

	for attempt := 0; ; attempt++ {
		payload, status, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusTooManyRequests:
			if attempt >= c.retries {
				return nil, fmt.Errorf("%w: channel %s after %d retries", ErrRateLimited, id, attempt)
			}
			c.logger.Warn("upstream rate limited, backing off",
				logger.String("channel", id),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff", c.backoff))
			if err := c.clock.Sleep(ctx, c.backoff); err != nil {
				return nil, err
			}
		case status < 200 || status > 299:
			return nil, &StatusError{ID: id, Code: status}
		default:
			return payload, nil
		}
	}
}

func (c *Client) get(ctx context.Context, endpoint string) (*ChannelPayload, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer utils.Close(resp.Body)

	c.metrics.UpstreamStatus(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, nil
	}

	var payload ChannelPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &payload, resp.StatusCode, nil
}
