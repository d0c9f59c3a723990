package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/burgnice/storefront/api/responses"
	"github.com/burgnice/storefront/pkg/config"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
)

const limiterIdleTTL = 10 * time.Minute

// limiterSet keeps one token bucket per session, falling back to the client
// address for requests that run before the session is resolved.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	entries  map[string]*limiterEntry
	lastScan time.Time
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(cfg config.RateLimitConfig) *limiterSet {
	return &limiterSet{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastScan) > limiterIdleTTL {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(s.entries, k)
			}
		}
		s.lastScan = now
	}

	entry, ok := s.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimit throttles each tab session with a token bucket. A non-positive
// rate disables the middleware.
func RateLimit(cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.RequestsPerSecond <= 0 || cfg.Burst <= 0 {
			return next
		}
		limiters := newLimiterSet(cfg)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := SessionIDFromContext(r.Context())
			if key == "" {
				key = "ip:" + clientIP(r)
			}
			if !limiters.allow(key) {
				if logg != nil {
					logg.Warn(r.Context(), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", "1")
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
