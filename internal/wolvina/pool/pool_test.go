package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
)

func TestPoolSize(t *testing.T) {
	m := NewManager(config.MemoryConfig{PoolSize: 40}, nil)
	assert.Equal(t, 40, m.poolSize(ChatHistory))
	assert.Equal(t, 20, m.poolSize(RateLimit))

	m = NewManager(config.MemoryConfig{}, nil)
	assert.Equal(t, 20, m.poolSize(ChatHistory))
}

func TestClientUnreachable(t *testing.T) {
	m := NewManager(config.MemoryConfig{RedisHost: "127.0.0.1", RedisPort: 1}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := m.Client(ctx, ChatHistory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis pool chat_history")
	assert.Empty(t, m.Health(ctx))
	assert.NoError(t, m.Close())
}

func TestOptionsKeepPasswordVerbatim(t *testing.T) {
	m := NewManager(config.MemoryConfig{
		RedisHost:     "redis.internal",
		RedisPort:     6380,
		RedisPassword: "p@ss/w#rd:1",
		RedisDB:       2,
	}, nil)

	opt := m.options(RateLimit)
	assert.Equal(t, "redis.internal:6380", opt.Addr)
	assert.Equal(t, "p@ss/w#rd:1", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 10, opt.PoolSize)
}
