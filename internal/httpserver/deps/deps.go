package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/session"
	"github.com/MrSnakeDoc/livewatch/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed on /api
	AllowedCIDRS []string         // client IPs allowed on /api, /readyz and /infra
	TrustProxy   bool             // resolve the client IP from proxy headers

	Session        *session.Session
	Store          *store.Store
	StoreDriver    string        // "local" or "redis"
	RefreshTrigger chan struct{} // manual refresh, buffered with capacity 1
	MetricsHandler http.Handler  // nil when metrics are disabled

	// APIGuards wraps every /api route. Built once by the server so the
	// per-IP buckets are shared across routes.
	APIGuards []func(http.Handler) http.Handler
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
