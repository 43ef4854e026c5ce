package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// ErrUnknownProvider is returned for provider names that are not registered.
var ErrUnknownProvider = errors.New("unknown search provider")

// Request is a provider-neutral search query.
type Request struct {
	Query             string   `json:"query"`
	MaxResults        int      `json:"max_results"`
	Depth             string   `json:"search_depth,omitempty"` // "basic" or "advanced"
	Topic             string   `json:"topic,omitempty"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
}

// Result is a single search hit.
type Result struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Source     string  `json:"source"`
}

// Response is what a provider returned for one query.
type Response struct {
	Query             string        `json:"query"`
	Answer            string        `json:"answer,omitempty"`
	Results           []Result      `json:"results"`
	FollowUpQuestions []string      `json:"follow_up_questions,omitempty"`
	Took              time.Duration `json:"took"`
}

// Provider is a web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) (*Response, error)
}

// Tool routes queries to registered providers.
type Tool struct {
	logger          *log.Logger
	providers       map[string]Provider
	order           []string
	defaultProvider string
}

// NewTool registers providers; the first one is the default unless
// defaultProvider names another registered provider.
func NewTool(logger *log.Logger, defaultProvider string, providers ...Provider) *Tool {
	if logger == nil {
		logger = log.Nop()
	}
	t := &Tool{logger: logger, providers: make(map[string]Provider)}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, dup := t.providers[p.Name()]; !dup {
			t.order = append(t.order, p.Name())
		}
		t.providers[p.Name()] = p
	}
	if _, ok := t.providers[defaultProvider]; ok {
		t.defaultProvider = defaultProvider
	} else if len(t.order) > 0 {
		t.defaultProvider = t.order[0]
	}
	return t
}

// Providers lists registered provider names in registration order.
func (t *Tool) Providers() []string {
	return append([]string(nil), t.order...)
}

// Search runs the request on the default provider.
func (t *Tool) Search(ctx context.Context, req Request) (*Response, error) {
	return t.SearchWith(ctx, t.defaultProvider, req)
}

// SearchWith runs the request on the named provider.
func (t *Tool) SearchWith(ctx context.Context, provider string, req Request) (*Response, error) {
	p, ok := t.providers[provider]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "%q", provider)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("search query is empty")
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	start := time.Now()
	t.logger.Info(ctx, "search started",
		log.KV("provider", provider),
		log.KV("query", req.Query),
		log.KV("max_results", req.MaxResults))

	resp, err := p.Search(ctx, req)
	if err != nil {
		t.logger.Error(ctx, "search failed", log.KV("provider", provider), log.Err(err))
		return nil, errors.Wrapf(err, "%s search", provider)
	}
	resp.Took = time.Since(start)
	if resp.Query == "" {
		resp.Query = req.Query
	}
	for i := range resp.Results {
		if resp.Results[i].Source == "" {
			resp.Results[i].Source = provider
		}
	}

	t.logger.Info(ctx, "search completed",
		log.KV("provider", provider),
		log.KV("results", len(resp.Results)),
		log.KV("took_ms", resp.Took.Milliseconds()))
	return resp, nil
}

// SearchAll queries every provider concurrently and merges the results,
// dropping duplicate URLs. It fails only when every provider fails.
func (t *Tool) SearchAll(ctx context.Context, req Request) (*Response, error) {
	if len(t.order) == 0 {
		return nil, errors.New("no search providers registered")
	}
	if len(t.order) == 1 {
		return t.SearchWith(ctx, t.order[0], req)
	}

	p := pool.NewWithResults[*Response]().WithContext(ctx)
	for _, name := range t.order {
		p.Go(func(ctx context.Context) (*Response, error) {
			return t.SearchWith(ctx, name, req)
		})
	}
	responses, err := p.Wait()
	if len(responses) == 0 {
		if err == nil {
			err = errors.New("no search results")
		}
		return nil, err
	}
	if err != nil {
		t.logger.Warn(ctx, "some search providers failed", log.Err(err))
	}

	merged := &Response{Query: req.Query}
	seen := make(map[string]struct{})
	for _, r := range responses {
		if merged.Answer == "" {
			merged.Answer = r.Answer
		}
		merged.FollowUpQuestions = append(merged.FollowUpQuestions, r.FollowUpQuestions...)
		if r.Took > merged.Took {
			merged.Took = r.Took
		}
		for _, res := range r.Results {
			key := strings.TrimRight(res.URL, "/")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged.Results = append(merged.Results, res)
		}
	}
	sort.SliceStable(merged.Results, func(i, j int) bool {
		return merged.Results[i].Score > merged.Results[j].Score
	})
	if req.MaxResults > 0 && len(merged.Results) > req.MaxResults {
		merged.Results = merged.Results[:req.MaxResults]
	}
	return merged, nil
}
