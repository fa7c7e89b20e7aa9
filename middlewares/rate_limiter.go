package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeremiapane/pizzeria-app/utils"
)

type RateLimiter struct {
	rate      int
	interval  time.Duration
	ips       map[string][]time.Time
	lastSweep time.Time
	mu        sync.Mutex
}

func NewRateLimiter(rate int, interval int) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: time.Duration(interval) * time.Second,
		ips:      make(map[string][]time.Time),
	}
}

func tooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.JSONResponse{
		Status:    false,
		Message:   message,
		Retryable: true,
	})
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			tooManyRequests(c, "too many requests")
			return
		}
		c.Next()
	}
}

// allow keeps a sliding window of request times per IP.
func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	if now.Sub(rl.lastSweep) >= rl.interval {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := rl.ips[ip][:0]
	for _, t := range rl.ips[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.rate {
		rl.ips[ip] = valid
		return false
	}
	rl.ips[ip] = append(valid, now)
	return true
}

// sweep forgets IPs with no request after cutoff.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for ip, times := range rl.ips {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.ips, ip)
		}
	}
}

// StrictRateLimiter throttles login and registration with a token bucket per IP.
type StrictRateLimiter struct {
	perMinute int
	limiters  map[string]*strictEntry
	lastSweep time.Time
	mu        sync.Mutex
}

type strictEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// strictIdle is how long a bucket takes to refill completely. An entry idle
// that long is the same as a new one.
const strictIdle = time.Minute

func NewStrictRateLimiter(perMinute int) *StrictRateLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &StrictRateLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*strictEntry),
	}
}

func (s *StrictRateLimiter) allow(ip string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= strictIdle {
		for key, e := range s.limiters {
			if now.Sub(e.lastSeen) >= strictIdle {
				delete(s.limiters, key)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.limiters[ip]
	if !ok {
		e = &strictEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)}
		s.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (s *StrictRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.allow(c.ClientIP(), time.Now()) {
			tooManyRequests(c, "too many attempts, please wait a moment")
			return
		}
		c.Next()
	}
}
