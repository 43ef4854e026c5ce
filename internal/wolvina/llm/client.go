package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

// ErrEmptyResponse is returned when the provider answered without text.
var ErrEmptyResponse = errors.New("empty or invalid response from model")

// ErrNotConfigured is returned when no credentials exist for a provider.
var ErrNotConfigured = errors.New("llm provider not configured")

// Request is a single-shot generation request.
type Request struct {
	Model           string
	SystemPrompt    string
	Prompt          string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
	// Grounded enables the provider's web-search grounding when supported.
	Grounded bool
}

// Citation is a grounding source attached to a response.
type Citation struct {
	Index int
	Title string
	URI   string
}

// Response is the generated text plus optional grounding data.
type Response struct {
	Text         string
	Citations    []Citation
	PromptTokens int
	OutputTokens int
}

type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// StatusError carries the HTTP status reported by a provider.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode extracts the provider status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// NewClient creates a client for the named provider and wraps it with the
// configured retry policy.
func NewClient(ctx context.Context, provider string, cfg *config.Config, logger *log.Logger) (Client, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	pc, ok := cfg.LLM.Providers[provider]
	if !ok || pc.APIKey == "" {
		return nil, errors.Wrapf(ErrNotConfigured, "provider %q", provider)
	}

	var (
		client Client
		err    error
	)
	switch provider {
	case "gemini":
		client, err = NewGemini(ctx, pc)
	case "openai":
		client = NewOpenAI(pc)
	default:
		return nil, errors.Errorf("unsupported llm provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	return WithRetry(client, RetryPolicyFromConfig(cfg.Retry), logger), nil
}

// applyDefaults fills unset request fields from provider config.
func applyDefaults(req Request, pc config.LLMProviderConfig) Request {
	if req.Model == "" {
		req.Model = pc.Model
	}
	if req.Temperature == 0 {
		req.Temperature = pc.Temperature
	}
	if req.TopP == 0 {
		req.TopP = pc.TopP
	}
	if req.MaxOutputTokens == 0 {
		req.MaxOutputTokens = pc.MaxTokens
	}
	return req
}
