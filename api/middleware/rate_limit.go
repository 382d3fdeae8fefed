package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/posfront/api/responses"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// RateLimitStore counts hits in fixed windows.
type RateLimitStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// RateLimitPolicy names a throttled surface and its per-window limits.
// A zero limit disables that counter.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int
	sessionLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, sessionLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit, sessionLimit: sessionLimit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.sessionLimit > 0)
}

type rateCounter struct {
	scope   string
	subject string
	limit   int
}

// counters lists the windows a request is charged against. The session
// counter needs Auth to have run first.
func (p RateLimitPolicy) counters(r *http.Request) []rateCounter {
	out := make([]rateCounter, 0, 2)
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, rateCounter{scope: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.sessionLimit > 0 {
		if sessionID := SessionIDFromContext(r.Context()); sessionID != "" {
			out = append(out, rateCounter{scope: "session", subject: hashValue(sessionID), limit: p.sessionLimit})
		}
	}
	return out
}

// RateLimit answers 429 RATE_LIMITED once any counter of the policy is over
// its limit for the current window. Counter failures are reported as a
// dependency error rather than letting the request through.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, c := range policy.counters(r) {
				key := store.RateLimitKey(policy.name, c.scope, c.subject)
				count, err := store.IncrWindow(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					rejectRateLimited(ctx, logg, w, policy, c, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, c rateCounter, count int64) {
	retryAfter := int(policy.window.Round(time.Second).Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         policy.name,
			"scope":          c.scope,
			"subject":        c.subject,
			"attempts":       count,
			"limit":          c.limit,
			"window_seconds": retryAfter,
		}), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded").
		WithDetails(map[string]any{"scope": c.scope, "retry_after_seconds": retryAfter}))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
