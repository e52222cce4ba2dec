package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/competition-engine/internal/usecase"
	"golang.org/x/time/rate"
)

const (
	adminTokenHeader  = "X-Admin-Token"
	adminActorHeader  = "X-Admin-Actor"
	maxAdminActorLen  = 64
	defaultAdminActor = "admin"

	limiterIdleTTL   = 10 * time.Minute
	limiterPruneSize = 1024
)

type adminActorKey struct{}

// adminActorFromContext names who issued an administrative request, for logs.
func adminActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(adminActorKey{}).(string); ok && actor != "" {
		return actor
	}
	return defaultAdminActor
}

// RequireAdminToken guards administrative routes. The token is read from
// X-Admin-Token, falling back to a bearer Authorization header.
func RequireAdminToken(token string, next http.Handler) http.Handler {
	want := []byte(strings.TrimSpace(token))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if len(want) == 0 {
			writeError(ctx, w, fmt.Errorf("%w: admin token is not configured", usecase.ErrDependencyUnavailable))
			return
		}

		got := presentedToken(r)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			writeError(ctx, w, fmt.Errorf("%w: invalid admin token", usecase.ErrUnauthorized))
			return
		}

		actor := strings.TrimSpace(r.Header.Get(adminActorHeader))
		if len(actor) > maxAdminActorLen {
			actor = actor[:maxAdminActorLen]
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, adminActorKey{}, actor)))
	})
}

func presentedToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(adminTokenHeader)); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClientRateLimiter keeps one token bucket per client IP for admin writes.
type ClientRateLimiter struct {
	limit rate.Limit
	burst int
	clock clockwork.Clock

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

// NewClientRateLimiter allows rps sustained requests per client with the
// given burst. A non-positive rps returns nil, which allows everything.
func NewClientRateLimiter(rps float64, burst int, clock clockwork.Clock) *ClientRateLimiter {
	if rps <= 0 {
		return nil
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClientRateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

func (l *ClientRateLimiter) Allow(client string) bool {
	if l == nil {
		return true
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) >= limiterPruneSize {
		l.prune(now)
	}
	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[client] = b
	}
	b.seen = now
	return b.AllowN(now, 1)
}

func (l *ClientRateLimiter) prune(now time.Time) {
	for client, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdleTTL {
			delete(l.buckets, client)
		}
	}
}

func RateLimit(limiter *ClientRateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := resolveClientIP(r)
		if client == "" {
			client = "unknown"
		}
		if !limiter.Allow(client) {
			writeError(r.Context(), w, fmt.Errorf("%w: client=%s", errRateLimited, client))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveClientIP takes the first parseable address from the proxy headers,
// then the socket address.
func resolveClientIP(r *http.Request) string {
	for _, raw := range []string{
		r.Header.Get("Fly-Client-IP"),
		r.Header.Get("X-Forwarded-For"),
		r.Header.Get("X-Real-IP"),
		r.RemoteAddr,
	} {
		first, _, _ := strings.Cut(raw, ",")
		first = strings.TrimSpace(first)
		if host, _, err := net.SplitHostPort(first); err == nil {
			first = host
		}
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return ""
}
