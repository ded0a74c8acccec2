package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"sqsbackoff/pkg/metrics"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             10.0,
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

// clientRegistry keeps one limiter per client IP and forgets idle clients.
type clientRegistry struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	clients   map[string]*clientLimiter
	lastPrune time.Time
}

func newClientRegistry(cfg RateLimitConfig) *clientRegistry {
	return &clientRegistry{
		cfg:       cfg,
		clients:   make(map[string]*clientLimiter),
		lastPrune: time.Now(),
	}
}

func (r *clientRegistry) get(ip string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.CleanupInterval > 0 && now.Sub(r.lastPrune) >= r.cfg.CleanupInterval {
		for key, c := range r.clients {
			if now.Sub(c.lastSeen) > r.cfg.MaxAge {
				delete(r.clients, key)
			}
		}
		r.lastPrune = now
	}

	c, ok := r.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(r.cfg.RPS), r.cfg.Burst)}
		r.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// RateLimitMiddleware limits admin API requests per client IP.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	registry := newClientRegistry(config)
	limitHeader := strconv.Itoa(int(config.RPS))

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.RemoteIP()
		}

		limiter := registry.get(clientIP, time.Now())
		c.Header("X-RateLimit-Limit", limitHeader)

		if !limiter.Allow() {
			metrics.RateLimitRequestsTotal.WithLabelValues("admin", "limited").Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"error_code": "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("admin", "allowed").Inc()
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(int(limiter.Tokens()), 0)))

		c.Next()
	}
}
