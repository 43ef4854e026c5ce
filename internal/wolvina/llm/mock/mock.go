package mock

import (
	"context"
	"sync"

	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
)

// Reply is one scripted outcome.
type Reply struct {
	Text string
	Err  error
}

// Mock replays scripted replies in order and records every request. Once
// the script runs out the last reply repeats.
type Mock struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

func New(replies ...Reply) *Mock { return &Mock{replies: replies} }

// Text is shorthand for a mock that always answers with text.
func Text(text string) *Mock { return New(Reply{Text: text}) }

// Failing is shorthand for a mock that always fails.
func Failing(err error) *Mock { return New(Reply{Err: err}) }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.replies) == 0 {
		return &llm.Response{Text: "mock response"}, nil
	}
	idx := len(m.requests) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	r := m.replies[idx]
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Text == "" {
		return nil, llm.ErrEmptyResponse
	}
	return &llm.Response{Text: r.Text}, nil
}

// Requests returns the recorded requests.
func (m *Mock) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// Calls returns how many times Generate ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
