package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
)

// Gemini generates text with the Gemini API, optionally grounded with
// Google Search results.
type Gemini struct {
	client *genai.Client
	cfg    config.LLMProviderConfig
}

func NewGemini(ctx context.Context, cfg config.LLMProviderConfig) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	req = applyDefaults(req, g.cfg)

	gc := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.TopP > 0 {
		gc.TopP = genai.Ptr(float32(req.TopP))
	}
	if req.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.Grounded {
		gc.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gc)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		supports, chunks := groundingFrom(resp.Candidates[0].GroundingMetadata)
		out.Citations = chunks
		out.Text = AddCitations(resp.Text(), supports, chunks)
		out.Text = strings.TrimSpace(out.Text)
	}
	return out, nil
}

func groundingFrom(md *genai.GroundingMetadata) ([]Support, []Citation) {
	chunks := make([]Citation, 0, len(md.GroundingChunks))
	for i, c := range md.GroundingChunks {
		cit := Citation{Index: i + 1}
		if c != nil && c.Web != nil {
			cit.URI = c.Web.URI
			cit.Title = c.Web.Title
		}
		chunks = append(chunks, cit)
	}
	supports := make([]Support, 0, len(md.GroundingSupports))
	for _, s := range md.GroundingSupports {
		if s == nil || s.Segment == nil {
			continue
		}
		idx := make([]int, 0, len(s.GroundingChunkIndices))
		for _, i := range s.GroundingChunkIndices {
			idx = append(idx, int(i))
		}
		supports = append(supports, Support{EndIndex: int(s.Segment.EndIndex), ChunkIndices: idx})
	}
	return supports, chunks
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{Code: apiErrPtr.Code, Err: err}
	}
	return errors.Wrap(err, "gemini generate")
}
