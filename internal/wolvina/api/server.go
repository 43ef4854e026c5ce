// Package api serves the action webhook called by the dialogue manager.
package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/actions"
	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// Server is the action server.
type Server struct {
	engine   *gin.Engine
	registry *actions.Registry
	cfg      config.ActionServerConfig
	version  string
	logger   *log.Logger
}

func NewServer(cfg *config.Config, registry *actions.Registry, logger *log.Logger) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = log.Nop()
	}

	engine := gin.New()
	engine.Use(RequestID(), Recovery(logger), Logging(logger), CORS(cfg.ActionServer.CORSOrigins))

	s := &Server{
		engine:   engine,
		registry: registry,
		cfg:      cfg.ActionServer,
		version:  cfg.App.Version,
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/actions", s.handleActions)
	s.engine.POST("/webhook", s.handleWebhook)
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains in-flight calls.
func (s *Server) Run(ctx context.Context) error {
	return Serve(ctx, fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), s.engine, s.logger)
}

// Serve runs handler on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", log.KV("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "listen %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(ctx, "http server shutting down", log.KV("addr", addr))
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

func (s *Server) handleActions(c *gin.Context) {
	names := s.registry.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		out = append(out, gin.H{"name": name})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := readBody(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, tracker.ErrorBody{Error: err.Error()})
		return
	}

	var call tracker.ActionCall
	if err := json.Unmarshal(body, &call); err != nil {
		c.JSON(http.StatusBadRequest, tracker.ErrorBody{Error: "invalid action call: " + err.Error()})
		return
	}
	if call.NextAction == "" {
		c.JSON(http.StatusBadRequest, tracker.ErrorBody{Error: "next_action is required"})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.registry.Execute(ctx, call)
	if err != nil {
		var notFound *tracker.ActionNotFoundError
		var rejection *tracker.RejectionError
		switch {
		case errors.As(err, &notFound):
			c.JSON(http.StatusNotFound, tracker.ErrorBody{Error: notFound.Error(), ActionName: call.NextAction})
		case errors.As(err, &rejection):
			c.JSON(http.StatusBadRequest, tracker.ErrorBody{Error: rejection.Error(), ActionName: call.NextAction})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, tracker.ErrorBody{Error: err.Error(), ActionName: call.NextAction})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func readBody(r *http.Request) ([]byte, error) {
	var reader io.Reader = r.Body
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, errors.Wrap(err, "decompress body")
		}
		defer gz.Close()
		reader = gz
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
