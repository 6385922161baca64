package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	goCache "github.com/patrickmn/go-cache"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window limiter keyed by client. Windows live in a
// go-cache store so idle clients expire on their own.
type RateLimiter struct {
	mu      sync.Mutex
	windows *goCache.Cache
	limit   int
	window  time.Duration
}

type rateWindow struct {
	tokens  int
	resetAt time.Time
}

// NewRateLimiter allows limit requests per window for each key
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: goCache.New(window, window*2),
		limit:   limit,
		window:  window,
	}
}

// Allow consumes one token for key and reports whether the request may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if v, ok := rl.windows.Get(key); ok {
		w := v.(*rateWindow)
		if now.Before(w.resetAt) {
			if w.tokens == 0 {
				return false
			}
			w.tokens--
			return true
		}
	}
	rl.windows.Set(key, &rateWindow{tokens: rl.limit - 1, resetAt: now.Add(rl.window)}, rl.window)
	return true
}

// Remaining returns the tokens left in key's current window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.windows.Get(key)
	if !ok {
		return rl.limit
	}
	w := v.(*rateWindow)
	if !time.Now().Before(w.resetAt) {
		return rl.limit
	}
	return w.tokens
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key extracted from the request
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return rateLimit(limiter, keyFunc, "Too many requests. Please try again later.")
}

// AuthRateLimit throttles login and refresh attempts per client IP
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimit(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		"Too many authentication attempts. Please try again later.")
}

func rateLimit(limiter *RateLimiter, keyFunc func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited, message, GetRequestID(c)))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
