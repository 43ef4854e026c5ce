// Package pool hands out shared Redis clients, one per purpose.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// Purposes a client can be requested for.
const (
	ChatHistory = "chat_history"
	RateLimit   = "rate_limit"
)

// Manager lazily creates Redis clients and pings them before use.
type Manager struct {
	cfg     config.MemoryConfig
	logger  *log.Logger
	mu      sync.RWMutex
	clients map[string]*redis.Client
}

func NewManager(cfg config.MemoryConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{cfg: cfg, logger: logger, clients: make(map[string]*redis.Client)}
}

// Client returns the client for purpose, connecting on first use.
func (m *Manager) Client(ctx context.Context, purpose string) (*redis.Client, error) {
	m.mu.RLock()
	client, ok := m.clients[purpose]
	m.mu.RUnlock()
	if ok {
		return client, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if client, ok := m.clients[purpose]; ok {
		return client, nil
	}

	client, err := m.connect(ctx, purpose)
	if err != nil {
		return nil, errors.Wrapf(err, "redis pool %s", purpose)
	}
	m.clients[purpose] = client
	m.logger.Info(ctx, "redis client ready", log.KV("purpose", purpose), log.KV("addr", m.cfg.RedisAddr()))
	return client, nil
}

func (m *Manager) connect(ctx context.Context, purpose string) (*redis.Client, error) {
	opt := m.options(purpose)
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping")
	}
	return client, nil
}

// options passes credentials as fields so passwords need no URL escaping.
func (m *Manager) options(purpose string) *redis.Options {
	return &redis.Options{
		Addr:         m.cfg.RedisAddr(),
		Password:     m.cfg.RedisPassword,
		DB:           m.cfg.RedisDB,
		PoolSize:     m.poolSize(purpose),
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

func (m *Manager) poolSize(purpose string) int {
	size := m.cfg.PoolSize
	if size <= 0 {
		size = 20
	}
	// Rate limit checks are one round trip each.
	if purpose == RateLimit && size > 10 {
		return size / 2
	}
	return size
}

// Health pings every open client.
func (m *Manager) Health(ctx context.Context) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.clients))
	for purpose, client := range m.clients {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			out[purpose] = "unhealthy: " + err.Error()
		} else {
			out[purpose] = "healthy"
		}
		cancel()
	}
	return out
}

// Close closes every client and returns the first error.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for purpose, client := range m.clients {
		if err := client.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", purpose)
		}
		delete(m.clients, purpose)
	}
	return first
}
