package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kampuskuevent/server/internal/api/problem"
	"github.com/kampuskuevent/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierAdmin  RateLimitTier = "admin"
)

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRateLimitTier(r.Context(), tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit throttles requests per client IP using a token bucket per tier.
// A tier with a non-positive limit is unlimited. The returned middleware
// shares one limiter store across every handler it wraps; the store's
// cleanup goroutine runs until ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(ctx, cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			limiter := store.limiter(tier, clientKey(r, cfg.TrustedProxyCIDRs))
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(store.perMinute[tier])))
				problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too many requests", nil, "",
					problem.WithDetail("Rate limit exceeded, retry later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func retryAfterSeconds(perMinute int) int {
	if perMinute <= 0 {
		return 60
	}
	seconds := int(math.Ceil(60 / float64(perMinute)))
	if seconds < 1 {
		return 1
	}
	return seconds
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perMinute   map[RateLimitTier]int
	cleanupDone chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(ctx context.Context, cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierAdmin:  cfg.AdminPerMinute,
		},
		cleanupDone: make(chan struct{}),
	}

	if cfg.PublicPerMinute <= 0 && cfg.AdminPerMinute <= 0 {
		close(store.cleanupDone)
		return store
	}

	// Removes entries not accessed in 15 minutes
	go store.cleanupLoop(ctx)

	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key
	if key == "" {
		lookup = string(tier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	interval := time.Minute / time.Duration(limit)
	limiter := rate.NewLimiter(rate.Every(interval), limit)

	s.limiters[lookup] = &limiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

func (s *limiterStore) cleanupLoop(ctx context.Context) {
	defer close(s.cleanupDone)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ttl := 15 * time.Minute

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

// clientKey extracts the client identifier for rate limiting. Forwarding
// headers are trusted only from the configured proxy CIDRs.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	if r == nil {
		return ""
	}

	remoteIP := ""
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	} else {
		remoteIP = r.RemoteAddr
	}

	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}

	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	if len(trustedCIDRs) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(cidrStr))
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}

	return false
}
