// Package mcpserver publishes the UK career search tools over the Model
// Context Protocol.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
)

const (
	ServerName = "UK Career Advisor Search Tools"
	PingReply  = "pong – UK Career Search MCP is ready!"

	careerResults   = 8
	careerKeyFacts  = 6
	campusResults   = 5
	campusDomain    = "wlv.ac.uk"
	companyResults  = 5
	noSummaryAnswer = "No direct summary available."
)

type CareerInfoInput struct {
	Query string `json:"query" jsonschema:"main search, e.g. software engineer London 2026 graduate schemes"`
	Focus string `json:"focus,omitempty" jsonschema:"general, salary, trends, deadlines, companies, visas or pathways"`
}

type CareerInfo struct {
	Summary           string   `json:"summary"`
	KeyFacts          []string `json:"key_facts"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	RawResultsCount   int      `json:"raw_results_count"`
}

type CampusInfoInput struct {
	Query string `json:"query" jsonschema:"topic within the wlv.ac.uk site, e.g. student life"`
}

type Page struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type CampusInfo struct {
	Summary          string   `json:"summary"`
	KeyFacts         []string `json:"key_facts"`
	ExtractedContent []Page   `json:"extracted_content"`
	TotalExtracted   int      `json:"total_extracted"`
}

type CompanyInfoInput struct {
	CompanyName string `json:"company_name" jsonschema:"name of the UK company"`
}

type CompanyInfo struct {
	Company string   `json:"company"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources"`
}

type handlers struct {
	tool   *search.Tool
	logger *log.Logger
}

// New builds the MCP server with every tool registered.
func New(tool *search.Tool, version string, logger *log.Logger) *mcp.Server {
	if logger == nil {
		logger = log.Nop()
	}
	h := &handlers{tool: tool, logger: logger}
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_uk_career_info",
		Description: "Search up-to-date UK career and job market information. Always use this before giving time-sensitive advice.",
	}, h.searchCareerInfo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_wlv_campus_info",
		Description: "Extract web content from the University of Wolverhampton website (wlv.ac.uk) for school and campus questions.",
	}, h.extractCampusInfo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_uk_company_info",
		Description: "Retrieve information about a UK company for career and job market insights.",
	}, h.companyInfo)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Health check that returns pong when the server is alive.",
	}, ping)

	return server
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (h *handlers) searchCareerInfo(ctx context.Context, _ *mcp.CallToolRequest, in CareerInfoInput) (*mcp.CallToolResult, CareerInfo, error) {
	focus := in.Focus
	if focus == "" {
		focus = "general"
	}
	query := fmt.Sprintf("UK %s %s 2025 OR 2026", focus, in.Query)

	resp, err := h.tool.Search(ctx, search.Request{
		Query:         query,
		Depth:         "advanced",
		IncludeAnswer: true,
		MaxResults:    careerResults,
	})
	if err != nil {
		return nil, CareerInfo{}, errors.Wrap(err, "career search failed")
	}

	out := CareerInfo{
		Summary:           resp.Answer,
		KeyFacts:          keyFacts(resp.Results, careerKeyFacts),
		FollowUpQuestions: resp.FollowUpQuestions,
		RawResultsCount:   len(resp.Results),
	}
	if out.Summary == "" {
		out.Summary = noSummaryAnswer
	}
	if out.FollowUpQuestions == nil {
		out.FollowUpQuestions = []string{}
	}
	h.logger.Info(ctx, "uk career search", log.KV("query", query), log.KV("results", out.RawResultsCount))
	return nil, out, nil
}

func (h *handlers) extractCampusInfo(ctx context.Context, _ *mcp.CallToolRequest, in CampusInfoInput) (*mcp.CallToolResult, CampusInfo, error) {
	resp, err := h.tool.Search(ctx, search.Request{
		Query:             "site:" + campusDomain + " " + in.Query,
		Depth:             "basic",
		IncludeDomains:    []string{campusDomain},
		IncludeRawContent: true,
		MaxResults:        campusResults,
	})
	if err != nil {
		return nil, CampusInfo{}, errors.Wrap(err, "campus content extraction failed")
	}

	pages := make([]Page, 0, len(resp.Results))
	facts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Content == "" {
			continue
		}
		pages = append(pages, Page{Title: r.Title, URL: r.URL, Content: r.Content})
		facts = append(facts, fact(r))
	}

	h.logger.Info(ctx, "campus pages extracted", log.KV("query", in.Query), log.KV("pages", len(pages)))
	return nil, CampusInfo{
		Summary:          fmt.Sprintf("Extracted %d pages of content from Wolverhampton University website for '%s'.", len(pages), in.Query),
		KeyFacts:         facts,
		ExtractedContent: pages,
		TotalExtracted:   len(pages),
	}, nil
}

func (h *handlers) companyInfo(ctx context.Context, _ *mcp.CallToolRequest, in CompanyInfoInput) (*mcp.CallToolResult, CompanyInfo, error) {
	resp, err := h.tool.Search(ctx, search.Request{
		Query:         in.CompanyName + " UK",
		Depth:         "advanced",
		IncludeAnswer: true,
		MaxResults:    companyResults,
	})
	if err != nil {
		return nil, CompanyInfo{}, errors.Wrap(err, "company info retrieval failed")
	}

	out := CompanyInfo{Company: in.CompanyName, Summary: resp.Answer, Sources: keyFacts(resp.Results, companyResults)}
	if out.Summary == "" {
		out.Summary = noSummaryAnswer
	}
	return nil, out, nil
}

func ping(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: PingReply}}}, nil, nil
}

func keyFacts(results []search.Result, limit int) []string {
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, fact(r))
	}
	return out
}

func fact(r search.Result) string {
	return r.Title + " → " + r.URL
}
