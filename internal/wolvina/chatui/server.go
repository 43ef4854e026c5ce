// Package chatui serves the browser chat client and relays messages to the
// dialogue manager.
package chatui

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/api"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
)

//go:embed static
var staticFiles embed.FS

// Inbound is a frame sent by the browser. Title is what the user clicked
// when Message is a button payload.
type Inbound struct {
	Message string `json:"message"`
	Title   string `json:"title,omitempty"`
}

// HealthFunc reports backend health keyed by component.
type HealthFunc func(ctx context.Context) map[string]string

type Server struct {
	engine   *gin.Engine
	rasa     *RasaClient
	store    Store
	logger   *log.Logger
	upgrader websocket.Upgrader
	health   HealthFunc
	now      func() time.Time
}

func NewServer(rasa *RasaClient, store Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Server{
		engine: gin.New(),
		rasa:   rasa,
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
	s.engine.Use(api.RequestID(), api.Recovery(logger), api.Logging(logger))

	static, _ := fs.Sub(staticFiles, "static")
	s.engine.GET("/", func(c *gin.Context) { c.FileFromFS("/", http.FS(static)) })
	s.engine.GET("/ws", s.handleWS)

	group := s.engine.Group("/api")
	group.GET("/history", s.handleHistory)
	group.DELETE("/history", s.handleClear)
	group.GET("/status", s.handleStatus)
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// WithHealth adds storage health to the status route.
func (s *Server) WithHealth(fn HealthFunc) *Server {
	s.health = fn
	return s
}

func senderOf(c *gin.Context) string {
	return strings.TrimSpace(c.Query("sender"))
}

func (s *Server) handleHistory(c *gin.Context) {
	sender := senderOf(c)
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
		return
	}
	msgs, err := s.store.History(c.Request.Context(), sender)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sender": sender, "messages": msgs})
}

func (s *Server) handleClear(c *gin.Context) {
	sender := senderOf(c)
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
		return
	}
	if err := s.store.Clear(c.Request.Context(), sender); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{"connected": true, "server": s.rasa.ServerURL(), "detail": "Connected to Rasa server"}
	if err := s.rasa.Status(ctx); err != nil {
		out["connected"] = false
		out["detail"] = err.Error()
	}
	if s.health != nil {
		out["storage"] = s.health(ctx)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleWS(c *gin.Context) {
	sender := senderOf(c)
	if sender == "" {
		sender = uuid.NewString()
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	s.logger.Info(ctx, "chat connected", log.KV("sender", sender))

	history, err := s.store.History(ctx, sender)
	if err != nil {
		s.logger.Warn(ctx, "chat history unavailable", log.KV("sender", sender), log.Err(err))
	}
	for _, m := range history {
		if err := conn.WriteJSON(m); err != nil {
			return
		}
	}

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug(ctx, "chat read ended", log.KV("sender", sender), log.Err(err))
			}
			return
		}
		if strings.TrimSpace(in.Message) == "" {
			continue
		}
		for _, m := range s.exchange(ctx, sender, in) {
			if err := conn.WriteJSON(m); err != nil {
				s.logger.Warn(ctx, "chat write failed", log.KV("sender", sender), log.Err(err))
				return
			}
		}
	}
}

// exchange records the user turn, relays it and returns the bot turns.
func (s *Server) exchange(ctx context.Context, sender string, in Inbound) []Message {
	shown := in.Message
	if in.Title != "" {
		shown = in.Title
	}
	s.record(ctx, sender, Message{Role: RoleUser, Text: shown, Time: s.now()})

	replies, err := s.rasa.Send(ctx, sender, in.Message)
	var out []Message
	switch {
	case err != nil:
		var status *StatusError
		text := "Connection error: " + err.Error()
		if errors.As(err, &status) {
			text = "Error: " + status.Error()
		}
		s.logger.Warn(ctx, "dialogue manager call failed", log.KV("sender", sender), log.Err(err))
		out = []Message{{Role: RoleAssistant, Text: text, Time: s.now()}}
	default:
		for _, r := range replies {
			out = append(out, Message{Role: RoleAssistant, Text: r.Text, Buttons: r.Buttons, Image: r.Image, Time: s.now()})
		}
	}
	s.record(ctx, sender, out...)
	return out
}

func (s *Server) record(ctx context.Context, sender string, msgs ...Message) {
	if err := s.store.Append(ctx, sender, msgs...); err != nil {
		s.logger.Warn(ctx, "chat history not saved", log.KV("sender", sender), log.Err(err))
	}
}
