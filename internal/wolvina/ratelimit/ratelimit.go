// Package ratelimit implements sliding-window request limits backed by
// memory or Redis.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Info, error)
	Reset(ctx context.Context, key string) error
}

// Info describes the state of a key after a decision.
type Info struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Memory keeps request timestamps per key in process.
type Memory struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	window    time.Duration
	limit     int
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory(window time.Duration, limit int) *Memory {
	return &Memory{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		now:      time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	start := now.Add(-m.window)
	m.sweep(now, start)
	kept := m.requests[key][:0]
	for _, ts := range m.requests[key] {
		if ts.After(start) {
			kept = append(kept, ts)
		}
	}

	info := Info{Limit: m.limit, ResetAt: now.Add(m.window)}
	if len(kept) > 0 {
		info.ResetAt = kept[0].Add(m.window)
	}
	if len(kept) >= m.limit {
		m.requests[key] = kept
		return info, nil
	}

	kept = append(kept, now)
	m.requests[key] = kept
	info.Allowed = true
	info.Remaining = m.limit - len(kept)
	return info, nil
}

// sweep drops keys with no request inside the window, at most once per window.
func (m *Memory) sweep(now, start time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for key, times := range m.requests {
		if len(times) == 0 || !times[len(times)-1].After(start) {
			delete(m.requests, key)
		}
	}
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, key)
	return nil
}

// slidingWindow trims the window, then records the request if under limit.
// Returns {allowed, remaining, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
local current = redis.call('ZCARD', key)
local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end

if current < limit then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, ttl)
  return {1, limit - current - 1, oldest}
end
return {0, 0, oldest}
`)

// Redis shares limits across processes using a sorted set per key.
type Redis struct {
	client redis.UniversalClient
	logger *log.Logger
	window time.Duration
	limit  int
	prefix string
}

func NewRedis(client redis.UniversalClient, logger *log.Logger, window time.Duration, limit int) *Redis {
	if logger == nil {
		logger = log.Nop()
	}
	return &Redis{client: client, logger: logger, window: window, limit: limit, prefix: "wolvina:rate_limit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (Info, error) {
	now := time.Now()
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(now.UnixNano(), 10)

	res, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		nowMs-r.window.Milliseconds(), nowMs, r.limit, r.window.Milliseconds(), member).Int64Slice()
	if err != nil {
		r.logger.Error(ctx, "rate limit check failed", log.KV("key", key), log.Err(err))
		return Info{}, errors.Wrap(err, "rate limit script")
	}
	if len(res) != 3 {
		return Info{}, errors.Errorf("unexpected rate limit reply %v", res)
	}

	return Info{
		Allowed:   res[0] == 1,
		Limit:     r.limit,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).Add(r.window),
	}, nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
