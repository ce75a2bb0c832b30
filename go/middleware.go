package marketserver

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "marketserver.request_id"

// RequestIDMiddleware propagates X-Request-ID, generating one when absent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggingMiddleware writes one structured entry per request, leveled by response status.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", RequestID(c)),
		)
	}
}

// Defaults bounding the per-client limiter set.
const (
	DefaultLimiterIdleTimeout = 10 * time.Minute
	DefaultLimiterMaxClients  = 10000
)

// RateLimiter hands out one token bucket per client IP. Buckets idle longer than the idle
// timeout are dropped, and the least recently seen client is evicted once the set is full.
type RateLimiter struct {
	rate        rate.Limit
	burst       int
	idleTimeout time.Duration
	maxClients  int
	now         func() time.Time

	mu      sync.Mutex
	clients map[string]*list.Element
	recency *list.List // front is most recently seen
}

type clientBucket struct {
	key      string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption tunes the limiter set.
type RateLimiterOption func(*RateLimiter)

// WithIdleTimeout drops buckets of clients silent for longer than d.
func WithIdleTimeout(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if d > 0 {
			rl.idleTimeout = d
		}
	}
}

// WithMaxClients caps how many client buckets are kept.
func WithMaxClients(n int) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.maxClients = n
		}
	}
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		rate:        rate.Limit(rps),
		burst:       burst,
		idleTimeout: DefaultLimiterIdleTimeout,
		maxClients:  DefaultLimiterMaxClients,
		now:         time.Now,
		clients:     map[string]*list.Element{},
		recency:     list.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rl)
		}
	}
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.expire(now)
	if elem, ok := rl.clients[key]; ok {
		bucket := elem.Value.(*clientBucket)
		bucket.lastSeen = now
		rl.recency.MoveToFront(elem)
		return bucket.limiter.AllowN(now, 1)
	}
	if rl.recency.Len() >= rl.maxClients {
		rl.remove(rl.recency.Back())
	}
	bucket := &clientBucket{key: key, limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: now}
	rl.clients[key] = rl.recency.PushFront(bucket)
	return bucket.limiter.AllowN(now, 1)
}

// expire pops idle buckets from the back of the recency list.
func (rl *RateLimiter) expire(now time.Time) {
	for elem := rl.recency.Back(); elem != nil; elem = rl.recency.Back() {
		if now.Sub(elem.Value.(*clientBucket).lastSeen) <= rl.idleTimeout {
			return
		}
		rl.remove(elem)
	}
}

func (rl *RateLimiter) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	bucket := rl.recency.Remove(elem).(*clientBucket)
	delete(rl.clients, bucket.key)
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.recency.Len()
}

// Middleware answers 429 once a client exhausts its bucket. A nil limiter lets everything through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if rl == nil || rl.rate <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			respondProblem(c, apierrors.ErrTooManyRequests.WithDetail("request rate exceeded, retry later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
