package github

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter paces GitHub API calls. It never retries anything: it only
// delays the next call when the remaining request budget runs low.
type RateLimiter interface {
	// Wait blocks until it's safe to make an API call
	Wait(ctx context.Context) error

	// UpdateLimits records the rate limit headers of the latest response
	UpdateLimits(remaining int, reset time.Time)

	// GetStats returns current rate limiter statistics
	GetStats() RateLimiterStats
}

// RateLimiterStats provides statistics about rate limiter usage
type RateLimiterStats struct {
	RemainingRequests int           `json:"remaining_requests"`
	ResetTime         time.Time     `json:"reset_time"`
	CurrentDelay      time.Duration `json:"current_delay"`
	TotalWaits        int64         `json:"total_waits"`
	TotalDelayTime    time.Duration `json:"total_delay_time"`
}

// RateLimiterConfig configures the rate limiter behavior
type RateLimiterConfig struct {
	// BaseDelay is the minimum delay between requests
	BaseDelay time.Duration

	// MaxDelay caps any single wait
	MaxDelay time.Duration

	// Jitter adds randomness to delays
	Jitter float64

	// MinRemainingRequests is the threshold below which throttling starts
	MinRemainingRequests int

	// ThrottleDelay is the delay applied when no requests remain
	ThrottleDelay time.Duration
}

// DefaultRateLimiterConfig returns a default rate limiter configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		BaseDelay:            0,
		MaxDelay:             30 * time.Second,
		Jitter:               0.1,
		MinRemainingRequests: 50,
		ThrottleDelay:        2 * time.Second,
	}
}

type rateLimiter struct {
	config *RateLimiterConfig
	mu     sync.Mutex

	remaining int
	resetTime time.Time
	lastCall  time.Time

	stats RateLimiterStats
	rand  *rand.Rand
}

// NewRateLimiter creates a rate limiter. A nil config uses the defaults.
func NewRateLimiter(config *RateLimiterConfig) RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}

	return &rateLimiter{
		config:    config,
		remaining: 5000, // GitHub's default rate limit
		resetTime: time.Now().Add(time.Hour),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until it's safe to make an API call
func (rl *rateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()

	delay := rl.calculateDelay()
	if delay > 0 {
		rl.stats.TotalWaits++
		rl.stats.TotalDelayTime += delay

		// Release the lock while waiting
		rl.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		rl.mu.Lock()
	}

	rl.lastCall = time.Now()
	rl.mu.Unlock()
	return nil
}

// UpdateLimits records the rate limit headers of the latest response
func (rl *rateLimiter) UpdateLimits(remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = remaining
	rl.resetTime = reset
	rl.stats.RemainingRequests = remaining
	rl.stats.ResetTime = reset
}

// GetStats returns current rate limiter statistics
func (rl *rateLimiter) GetStats() RateLimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := rl.stats
	stats.CurrentDelay = rl.calculateDelay()
	return stats
}

// calculateDelay must be called with mu held
func (rl *rateLimiter) calculateDelay() time.Duration {
	now := time.Now()

	var totalDelay time.Duration

	if !rl.lastCall.IsZero() && rl.config.BaseDelay > 0 {
		if since := now.Sub(rl.lastCall); since < rl.config.BaseDelay {
			totalDelay = rl.config.BaseDelay - since
		}
	}

	// The budget refills at reset
	if now.Before(rl.resetTime) && rl.remaining < rl.config.MinRemainingRequests {
		if throttle := rl.calculateThrottleDelay(now); throttle > totalDelay {
			totalDelay = throttle
		}
	}

	if rl.config.Jitter > 0 && totalDelay > 0 {
		jitterAmount := float64(totalDelay) * rl.config.Jitter
		totalDelay += time.Duration(rl.rand.Float64() * jitterAmount)
	}

	if rl.config.MaxDelay > 0 && totalDelay > rl.config.MaxDelay {
		totalDelay = rl.config.MaxDelay
	}

	return totalDelay
}

// calculateThrottleDelay grows linearly as the remaining budget shrinks and
// waits for the reset once it is exhausted
func (rl *rateLimiter) calculateThrottleDelay(now time.Time) time.Duration {
	if rl.remaining <= 0 {
		return rl.resetTime.Sub(now)
	}

	ratio := float64(rl.remaining) / float64(rl.config.MinRemainingRequests)
	if ratio >= 1.0 {
		return 0
	}

	return time.Duration(float64(rl.config.ThrottleDelay) * (1.0 - ratio))
}
