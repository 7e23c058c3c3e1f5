package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client IP in fixed windows. A window opens
// with a client's first request, so a steady client cannot keep extending it.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
	rate    int
	window  time.Duration
	name    string
	stop    chan struct{}
	once    sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter allows rate requests per window for each client IP and
// starts a goroutine that forgets idle clients. name labels its log lines.
func NewRateLimiter(rate int, window time.Duration, name string) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
		name:    name,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Close stops the sweeper
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			if n := rl.sweep(now); n > 0 {
				logger.Default().Debug("rate limiter swept idle clients",
					logger.String("limiter", rl.name),
					logger.Int("removed", n),
				)
			}
		}
	}
}

// sweep drops clients whose window ended before now and returns how many
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, w := range rl.windows {
		if now.Sub(w.start) > rl.window {
			delete(rl.windows, ip)
			removed++
		}
	}
	return removed
}

// take records a request from ip at now. It reports whether the request fits
// the client's window, the window's request count and the time until it resets.
func (rl *RateLimiter) take(ip string, now time.Time) (allowed bool, count int, reset time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) > rl.window {
		w = &clientWindow{start: now}
		rl.windows[ip] = w
	}
	w.count++

	return w.count <= rl.rate, w.count, rl.window - now.Sub(w.start)
}

// Middleware enforces the limiter. Every response carries X-RateLimit-Limit
// and X-RateLimit-Remaining; rejected requests get a 429 problem with
// Retry-After.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, count, reset := rl.take(ip, time.Now())

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(rl.rate-count, 0)))

		if allowed {
			c.Next()
			return
		}

		logger.FromContext(c.Request.Context()).Warn("rate limit exceeded",
			logger.String("limiter", rl.name),
			logger.String("client_ip", ip),
			logger.Int("request_count", count),
			logger.Int("limit", rl.rate),
		)

		retryAfter := max(int(math.Ceil(reset.Seconds())), 1)
		apierror.WriteProblem(c, apierror.NewRateLimitError(apierror.GetRequestID(c), retryAfter))
		c.Abort()
	}
}

// RateLimit is the general limit: 300 requests per minute per IP
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(300, time.Minute, "general").Middleware()
}

// RateLimitReflections limits reflection runs to 20 per minute per IP
func RateLimitReflections() gin.HandlerFunc {
	return NewRateLimiter(20, time.Minute, "reflections").Middleware()
}
