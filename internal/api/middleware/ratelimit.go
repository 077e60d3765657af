package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	appErr "github.com/invmap/engine/pkg/errors"
)

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// Limiter is an IP-keyed token bucket set. Idle entries are dropped by Sweep.
type Limiter struct {
	rps   float64
	burst int

	mu       sync.Mutex
	visitors map[string]*limiterEntry
}

func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{rps: rps, burst: burst, visitors: map[string]*limiterEntry{}}
}

func getIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *Limiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	le, ok := l.visitors[ip]
	if !ok {
		le = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.visitors[ip] = le
	}
	le.last = now
	return le.limiter.AllowN(now, 1)
}

// Sweep forgets visitors idle for longer than idle.
func (l *Limiter) Sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range l.visitors {
		if time.Since(v.last) > idle {
			delete(l.visitors, k)
		}
	}
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(getIP(r), time.Now()) {
			writeError(w, http.StatusTooManyRequests, appErr.New(appErr.CodeUnavailable, "muitas requisições, tente novamente"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit applies a simple IP-based token bucket limiter.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	l := NewLimiter(rps, burst)
	go func() {
		gcTicker := time.NewTicker(5 * time.Minute)
		defer gcTicker.Stop()
		for range gcTicker.C {
			l.Sweep(10 * time.Minute)
		}
	}()
	return l.Middleware
}
