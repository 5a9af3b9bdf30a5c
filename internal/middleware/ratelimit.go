package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// MaxMessageLength is the longest text Telegram delivers in one message
const MaxMessageLength = 4096

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Allow(userID int64) bool
	Reset(userID int64)
}

// UserRateLimiter implements per-user rate limiting
type UserRateLimiter struct {
	enabled  bool
	limiters map[int64]*limiterEntry
	mu       sync.Mutex
	rpm      int
	burst    int
	idle     time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.RateLimitConfig, logger *logrus.Logger) *UserRateLimiter {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return &UserRateLimiter{enabled: false}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		enabled:  true,
		limiters: make(map[int64]*limiterEntry),
		rpm:      cfg.RequestsPerMinute,
		burst:    burst,
		idle:     time.Hour,
		logger:   logger,
		now:      time.Now,
	}
}

// Allow checks if a user is allowed to make a request
func (r *UserRateLimiter) Allow(userID int64) bool {
	if !r.enabled {
		return true
	}

	r.mu.Lock()
	entry, ok := r.limiters[userID]
	if !ok {
		// Rate per second = RPM / 60
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(float64(r.rpm)/60.0), r.burst)}
		r.limiters[userID] = entry
	}
	now := r.now()
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	r.mu.Unlock()

	if !allowed && r.logger != nil {
		r.logger.WithField("user_id", userID).Warn("Rate limit exceeded")
	}
	return allowed
}

// Reset resets the rate limiter for a user
func (r *UserRateLimiter) Reset(userID int64) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	delete(r.limiters, userID)
	r.mu.Unlock()
}

// Cleanup drops limiters of users idle for longer than an hour
func (r *UserRateLimiter) Cleanup() int {
	if !r.enabled {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	removed := 0
	for id, e := range r.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(r.limiters, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done
func (r *UserRateLimiter) Run(ctx context.Context, interval time.Duration) {
	if !r.enabled {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 && r.logger != nil {
				r.logger.WithField("removed", n).Debug("Dropped idle rate limiters")
			}
		}
	}
}

// ValidateInput performs input validation
func ValidateInput(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("message is not valid utf-8")
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return fmt.Errorf("message too long: %d characters", n)
	}
	return nil
}

// Pacer spaces out bulk sends by a fixed delay
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one send per delay
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next send is allowed or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
