package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/events"
)

// FromStatusChange builds the notification for a live/offline flip.
func FromStatusChange(c domain.StatusChange) Request {
	req := Request{
		ID:      c.ID,
		Tag:     "status:" + c.ID,
		Viewers: c.Viewers,
		At:      c.At,
	}
	if c.IsLive {
		req.Kind = KindWentLive
		req.Title = fmt.Sprintf("%s is live", c.ID)
		req.Body = c.Title
		if c.Category != "" {
			req.Body = fmt.Sprintf("%s (%s)", c.Title, c.Category)
		}
	} else {
		req.Kind = KindWentOffline
		req.Title = fmt.Sprintf("%s went offline", c.ID)
	}
	return req
}

// Subscribe forwards status changes to sink. First observations are not
// flips and never notify. enabled is consulted per change so a settings
// toggle takes effect immediately.
func Subscribe(topic *events.Topic[domain.StatusChange], sink Sink, enabled func() bool, timeout time.Duration) func() {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return topic.Subscribe(func(c domain.StatusChange) error {
		if c.First || (enabled != nil && !enabled()) {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sink.Notify(ctx, FromStatusChange(c))
	})
}
