package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles credential endpoints per client IP and route, so a
// burst against login does not exhaust the budget for signup.
type RateLimiter struct {
	mutex    sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests with the given burst. Entries
// unused for idle are dropped.
func NewRateLimiter(perMinute int, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + " " + c.Path()
			if wait, ok := l.allow(key); !ok {
				seconds := int(math.Ceil(wait.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func (l *RateLimiter) allow(key string) (time.Duration, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	entry, ok := l.visitors[key]
	if !ok {
		l.cleanup(now)
		entry = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return l.idle, false
	}
	wait := reservation.DelayFrom(now)
	if wait > 0 {
		reservation.CancelAt(now)
		return wait, false
	}
	return 0, true
}

func (l *RateLimiter) cleanup(now time.Time) {
	if l.idle == 0 {
		return
	}
	cutoff := now.Add(-l.idle)
	for key, entry := range l.visitors {
		if entry.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}
