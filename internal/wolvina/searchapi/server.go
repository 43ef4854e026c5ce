// Package searchapi exposes career search tools over plain HTTP.
package searchapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/ratelimit"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
)

// Topic is one search tool: a query prefix plus the wording used in errors.
type Topic struct {
	Name   string
	Prefix string
	Verb   string
}

// Topics in the order advertised by the index route.
var Topics = []Topic{
	{Name: "job_market_trends", Prefix: "job market trends", Verb: "searching job market trends"},
	{Name: "salary_data", Prefix: "salary data", Verb: "finding salary data"},
	{Name: "industry_insights", Prefix: "industry insights", Verb: "getting industry insights"},
	{Name: "career_paths", Prefix: "career paths", Verb: "searching career paths"},
}

// SearchRequest is the body of every search route.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// SearchResponse is the answer plus "- title: url" source lines.
type SearchResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Query   string   `json:"query"`
}

type Server struct {
	engine *gin.Engine
	tool   *search.Tool
	logger *log.Logger
}

// NewServer wires the routes. limiter may be nil to disable rate limiting.
func NewServer(tool *search.Tool, limiter ratelimit.Limiter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	engine := gin.New()
	engine.Use(api.RequestID(), api.Recovery(logger), api.Logging(logger))

	s := &Server{engine: engine, tool: tool, logger: logger}
	engine.GET("/", s.handleIndex)

	group := engine.Group("/search")
	if limiter != nil {
		group.Use(ratelimit.Middleware(limiter, ratelimit.ByClientIP, logger))
	}
	for _, topic := range Topics {
		group.POST("/"+topic.Name, s.handleSearch(topic))
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleIndex(c *gin.Context) {
	names := make([]string, 0, len(Topics))
	for _, t := range Topics {
		names = append(names, t.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "AI Assistant Search API",
		"tools":     names,
		"providers": s.tool.Providers(),
	})
}

func (s *Server) handleSearch(topic Topic) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "query is required"})
			return
		}

		resp, err := s.tool.Search(c.Request.Context(), search.Request{
			Query:         topic.Prefix + " " + req.Query,
			Depth:         "advanced",
			IncludeAnswer: true,
		})
		if err != nil {
			s.logger.Error(c.Request.Context(), "search failed", log.KV("tool", topic.Name), log.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Error %s: %v", topic.Verb, err)})
			return
		}

		sources := make([]string, 0, len(resp.Results))
		for _, r := range resp.Results {
			sources = append(sources, fmt.Sprintf("- %s: %s", r.Title, r.URL))
		}
		c.JSON(http.StatusOK, SearchResponse{Answer: resp.Answer, Sources: sources, Query: req.Query})
	}
}
