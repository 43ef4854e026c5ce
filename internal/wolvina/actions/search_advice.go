package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

const (
	searchResultCount  = 10
	searchSnippetCount = 5
)

// SearchCareerAdvice summarises fresh web results into advice and cites
// the sources it used.
type SearchCareerAdvice struct {
	llm    llm.Client
	search *search.Tool
	logger *log.Logger
}

func NewSearchCareerAdvice(deps Deps) *SearchCareerAdvice {
	deps = deps.withDefaults()
	return &SearchCareerAdvice{llm: deps.LLM, search: deps.Search, logger: deps.Logger}
}

func (a *SearchCareerAdvice) Name() string { return "action_search_career_advice" }

func (a *SearchCareerAdvice) Run(ctx context.Context, d *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	major := t.SlotString(SlotCurrentMajor, "your major")
	interest := t.SlotString(SlotCareerInterest, "careers")
	year := t.SlotString(SlotYearOfStudy, "your year")
	gpa := t.SlotString(SlotGPA, "N/A")
	internship := hasInternship(t)

	advice, sources, err := a.advise(ctx, interest, major, year, gpa, internship)
	if err != nil {
		a.logger.Warn(ctx, "search advice failed, using fallback", log.Err(err))
		advice = searchFallbackAdvice(interest, major)
		sources = searchFallbackSources
	}

	d.UtterResponse("utter_advice_core", map[string]any{
		"advice_text":     advice,
		"current_major":   major,
		"career_interest": interest,
		"year_of_study":   year,
	})
	d.UtterResponse("utter_encourage_human", nil)
	d.UtterResponse("utter_cite_sources", map[string]any{"sources_list": sources})
	return []tracker.Event{}, nil
}

func (a *SearchCareerAdvice) advise(ctx context.Context, interest, major, year, gpa string, internship bool) (string, string, error) {
	if a.search == nil {
		return "", "", errors.New("no search provider configured")
	}
	if a.llm == nil {
		return "", "", llm.ErrNotConfigured
	}

	query := searchAdviceQuery(interest, major, year, gpa, internship)
	resp, err := a.search.SearchAll(ctx, search.Request{Query: query, MaxResults: searchResultCount})
	if err != nil {
		return "", "", err
	}

	results := resp.Results
	if len(results) > searchSnippetCount {
		results = results[:searchSnippetCount]
	}
	snippets := make([]string, 0, len(results))
	cites := make([]string, 0, len(results))
	for i, r := range results {
		snippets = append(snippets, r.Content)
		if r.URL != "" {
			cites = append(cites, fmt.Sprintf("[%d] %s", i+1, r.URL))
		}
	}

	out, err := a.llm.Generate(ctx, llm.Request{Prompt: searchSummaryPrompt(interest, major, year, gpa, internship, snippets)})
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", "", llm.ErrEmptyResponse
	}
	return out.Text, strings.Join(cites, ", "), nil
}
