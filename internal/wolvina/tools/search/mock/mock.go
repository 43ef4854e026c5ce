package mock

import (
	"context"
	"sync"

	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
)

// Mock returns a canned response and records queries.
type Mock struct {
	name     string
	resp     *search.Response
	err      error
	mu       sync.Mutex
	requests []search.Request
}

func New(name string, results ...search.Result) *Mock {
	return &Mock{name: name, resp: &search.Response{Results: results}}
}

// WithAnswer sets the synthesized answer returned with results.
func (m *Mock) WithAnswer(answer string, followUps ...string) *Mock {
	m.resp.Answer = answer
	m.resp.FollowUpQuestions = followUps
	return m
}

// Failing returns a provider that always fails with err.
func Failing(name string, err error) *Mock {
	return &Mock{name: name, err: err}
}

func (m *Mock) Name() string { return m.name }

func (m *Mock) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	out := *m.resp
	out.Query = req.Query
	out.Results = append([]search.Result(nil), m.resp.Results...)
	if req.MaxResults > 0 && len(out.Results) > req.MaxResults {
		out.Results = out.Results[:req.MaxResults]
	}
	return &out, nil
}

// Requests returns the recorded requests.
func (m *Mock) Requests() []search.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]search.Request(nil), m.requests...)
}
