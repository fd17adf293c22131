package notify

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

const DefaultCooldown = 10 * time.Minute

// Policy configures PolicySink. QuietStart/QuietEnd are hours of the day
// (0-23); a negative value or start == end disables quiet hours.
type Policy struct {
	Cooldown   time.Duration
	QuietStart int
	QuietEnd   int
	MinViewers int
	Location   *time.Location
}

// PolicySink suppresses requests that fall inside a tag's cooldown, inside
// quiet hours, or (for went_live) below the viewer threshold. Suppressed
// requests are dropped without error.
type PolicySink struct {
	next   Sink
	policy Policy
	clock  clock.Clock
	logger logger.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

func NewPolicySink(next Sink, policy Policy, clk clock.Clock, log logger.Logger) *PolicySink {
	if clk == nil {
		clk = clock.Real{}
	}
	if policy.Location == nil {
		policy.Location = time.Local
	}
	return &PolicySink{
		next:   next,
		policy: policy,
		clock:  clk,
		logger: log,
		last:   map[string]time.Time{},
	}
}

func (s *PolicySink) Notify(ctx context.Context, req Request) error {
	now := s.clock.Now()
	if reason := s.suppressed(req, now); reason != "" {
		s.logger.Debug("notification suppressed",
			logger.String("tag", req.Tag),
			logger.String("reason", reason))
		return nil
	}
	if err := s.next.Notify(ctx, req); err != nil {
		return err
	}
	if req.Tag != "" {
		s.mu.Lock()
		s.last[req.Tag] = now
		s.mu.Unlock()
	}
	return nil
}

func (s *PolicySink) suppressed(req Request, now time.Time) string {
	if req.Kind == KindWentLive && req.Viewers < s.policy.MinViewers {
		return "below_threshold"
	}
	if s.quiet(now) {
		return "quiet_hours"
	}
	if req.Tag != "" && s.policy.Cooldown > 0 {
		s.mu.Lock()
		last, ok := s.last[req.Tag]
		s.mu.Unlock()
		if ok && now.Sub(last) < s.policy.Cooldown {
			return "cooldown"
		}
	}
	return ""
}

func (s *PolicySink) quiet(now time.Time) bool {
	start, end := s.policy.QuietStart, s.policy.QuietEnd
	if start < 0 || end < 0 || start == end {
		return false
	}
	h := now.In(s.policy.Location).Hour()
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}
