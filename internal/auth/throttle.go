package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LoginThrottle bounds the number of login attempts per key.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LoginThrottleKey scopes attempts to a client address and a username.
func LoginThrottleKey(clientIP, username string) string {
	return "login:" + clientIP + ":" + strings.ToLower(strings.TrimSpace(username))
}

// RedisThrottle counts attempts in Redis so every replica shares one budget.
// Each attempt re-arms the window, so a client must stay quiet for a full
// window before its budget is restored.
type RedisThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisThrottle builds a throttle allowing limit attempts per window.
func NewRedisThrottle(client *redis.Client, limit int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, limit: int64(limit), window: window}
}

// Allow records an attempt for key. Redis errors are returned with allowed=true.
func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	pipe := t.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= t.limit, nil
}

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryThrottle is a per-key token bucket kept in process memory: a burst of
// limit attempts, refilled at limit per window.
type MemoryThrottle struct {
	mu       sync.Mutex
	limiters map[string]*keyLimiter
	limit    rate.Limit
	burst    int
	window   time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryThrottle starts a throttle and its background cleanup loop.
func NewMemoryThrottle(limit int, window time.Duration) *MemoryThrottle {
	t := &MemoryThrottle{
		limiters: make(map[string]*keyLimiter),
		limit:    rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Allow consumes one attempt for key.
func (t *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	t.mu.Unlock()

	return kl.limiter.Allow(), nil
}

// Len returns the number of tracked keys.
func (t *MemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

// Stop ends the cleanup loop.
func (t *MemoryThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *MemoryThrottle) cleanupLoop() {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(time.Now())
		case <-t.stopCh:
			return
		}
	}
}

// cleanup drops keys idle for two windows; their buckets are full again by then.
func (t *MemoryThrottle) cleanup(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, kl := range t.limiters {
		if now.Sub(kl.lastAccess) > 2*t.window {
			delete(t.limiters, key)
		}
	}
}
