package chatui

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// Roles of transcript entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry and the frame pushed to the browser.
type Message struct {
	Role    string           `json:"role"`
	Text    string           `json:"text"`
	Buttons []tracker.Button `json:"buttons,omitempty"`
	Image   string           `json:"image,omitempty"`
	Time    time.Time        `json:"time"`
}

// Store keeps chat transcripts per sender.
type Store interface {
	Append(ctx context.Context, sender string, msgs ...Message) error
	History(ctx context.Context, sender string) ([]Message, error)
	Clear(ctx context.Context, sender string) error
}

// MemoryStore keeps transcripts in process.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string][]Message)}
}

func (s *MemoryStore) Append(_ context.Context, sender string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[sender] = append(s.chats[sender], msgs...)
	return nil
}

func (s *MemoryStore) History(_ context.Context, sender string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message{}, s.chats[sender]...), nil
}

func (s *MemoryStore) Clear(_ context.Context, sender string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, sender)
	return nil
}

// RedisStore keeps each transcript in a list that expires after ttl of
// inactivity.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sender string) string {
	return fmt.Sprintf("wolvina:chat:%s", sender)
}

func (s *RedisStore) Append(ctx context.Context, sender string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return errors.Wrap(err, "encode chat message")
		}
		values = append(values, b)
	}
	key := s.key(sender)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "append chat history")
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, sender string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sender), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load chat history")
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, sender string) error {
	return errors.Wrap(s.client.Del(ctx, s.key(sender)).Err(), "clear chat history")
}
