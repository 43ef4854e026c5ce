package llm

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// RetryPolicy is an exponential backoff (doubling) on selected status codes.
type RetryPolicy struct {
	Initial  time.Duration
	Max      time.Duration
	Deadline time.Duration
	Codes    map[int]struct{}
}

// DefaultRetryPolicy retries rate limiting and overload for up to 12s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Initial:  time.Second,
		Max:      6 * time.Second,
		Deadline: 12 * time.Second,
		Codes:    map[int]struct{}{429: {}, 503: {}},
	}
}

func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.Initial > 0 {
		p.Initial = cfg.Initial
	}
	if cfg.Max > 0 {
		p.Max = cfg.Max
	}
	if cfg.Deadline > 0 {
		p.Deadline = cfg.Deadline
	}
	if len(cfg.RetryCodes) > 0 {
		p.Codes = make(map[int]struct{}, len(cfg.RetryCodes))
		for _, c := range cfg.RetryCodes {
			p.Codes[c] = struct{}{}
		}
	}
	return p
}

func (p RetryPolicy) retryable(err error) bool {
	_, ok := p.Codes[StatusCode(err)]
	return ok
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.Initial)
	b = retry.WithCappedDuration(p.Max, b)
	return retry.WithMaxDuration(p.Deadline, b)
}

type retryClient struct {
	next   Client
	policy RetryPolicy
	logger *log.Logger
}

// WithRetry retries transient provider failures.
func WithRetry(next Client, policy RetryPolicy, logger *log.Logger) Client {
	if logger == nil {
		logger = log.Nop()
	}
	return &retryClient{next: next, policy: policy, logger: logger}
}

func (r *retryClient) Name() string { return r.next.Name() }

func (r *retryClient) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		resp    *Response
		attempt int
	)
	err := retry.Do(ctx, r.policy.backoff(), func(ctx context.Context) error {
		attempt++
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			resp = out
			return nil
		}
		if r.policy.retryable(err) {
			r.logger.Warn(ctx, "transient model error, retrying",
				log.KV("provider", r.next.Name()),
				log.KV("attempt", attempt),
				log.KV("status", StatusCode(err)))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
