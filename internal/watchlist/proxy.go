package watchlist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

var (
	ErrProxyDisabled = errors.New("watchlist: mutation proxy not configured")
	ErrUnauthorized  = errors.New("watchlist: proxy rejected the secret")
	ErrNotWatched    = errors.New("watchlist: channel not on the watchlist")
	ErrInvalidID     = errors.New("watchlist: invalid channel id")
)

// AddResult reports what the proxy did. An add of an id already present is
// not an error.
type AddResult struct {
	ID            string `json:"id"`
	Added         bool   `json:"added"`
	AlreadyExists bool   `json:"already_exists"`
}

type ProxyOptions struct {
	AddURL     string
	RemoveURL  string
	HTTPClient *http.Client
}

// Proxy calls the add/remove endpoints fronting the canonical watchlist.
type Proxy struct {
	addURL    string
	removeURL string
	client    *http.Client
}

type mutation struct {
	ID     string `json:"id"`
	Secret string `json:"secret,omitempty"`
}

func NewProxy(opts ProxyOptions) *Proxy {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Proxy{addURL: opts.AddURL, removeURL: opts.RemoveURL, client: opts.HTTPClient}
}

func (p *Proxy) Enabled() bool { return p.addURL != "" || p.removeURL != "" }

func (p *Proxy) Add(ctx context.Context, id string) (AddResult, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return AddResult{}, ErrInvalidID
	}
	if p.addURL == "" {
		return AddResult{}, ErrProxyDisabled
	}

	code, err := p.post(ctx, p.addURL, mutation{ID: id})
	if err != nil {
		return AddResult{}, err
	}
	switch {
	case code == http.StatusConflict:
		return AddResult{ID: id, AlreadyExists: true}, nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return AddResult{}, ErrUnauthorized
	case code < 200 || code > 299:
		return AddResult{}, fmt.Errorf("watchlist add %s: HTTP %d", id, code)
	}
	return AddResult{ID: id, Added: true}, nil
}

// Remove asks the proxy to drop id. The shared secret is mandatory.
func (p *Proxy) Remove(ctx context.Context, id, secret string) error {
	id = domain.NormalizeID(id)
	if id == "" {
		return ErrInvalidID
	}
	if p.removeURL == "" {
		return ErrProxyDisabled
	}
	if secret == "" {
		return ErrUnauthorized
	}

	code, err := p.post(ctx, p.removeURL, mutation{ID: id, Secret: secret})
	if err != nil {
		return err
	}
	switch {
	case code == http.StatusNotFound:
		return ErrNotWatched
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code < 200 || code > 299:
		return fmt.Errorf("watchlist remove %s: HTTP %d", id, code)
	}
	return nil
}

func (p *Proxy) post(ctx context.Context, endpoint string, body mutation) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode mutation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("watchlist proxy: %w", err)
	}
	defer utils.Close(resp.Body)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}
