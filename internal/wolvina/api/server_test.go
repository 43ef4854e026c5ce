package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvina/wolvina-go/internal/wolvina/actions"
	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	llmmock "github.com/wolvina/wolvina-go/internal/wolvina/llm/mock"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

type rejectAction struct{}

func (rejectAction) Name() string { return "action_reject" }

func (rejectAction) Run(context.Context, *tracker.Dispatcher, *tracker.Tracker, tracker.Domain) ([]tracker.Event, error) {
	return nil, &tracker.RejectionError{ActionName: "action_reject"}
}

type failAction struct{}

func (failAction) Name() string { return "action_fail" }

func (failAction) Run(context.Context, *tracker.Dispatcher, *tracker.Tracker, tracker.Domain) ([]tracker.Event, error) {
	return nil, errors.New("boom")
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.ActionServer.Timeout = 0

	registry := actions.Default(actions.Deps{
		LLM:   llmmock.Text("Build a portfolio."),
		NewID: func() string { return "adv-42" },
	})
	registry.Register(rejectAction{}, failAction{})
	return NewServer(cfg, registry, nil).Handler()
}

func post(h http.Handler, body string, gz bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if gz {
		w := gzip.NewWriter(&buf)
		_, _ = w.Write([]byte(body))
		_ = w.Close()
	} else {
		buf.WriteString(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook", &buf)
	req.Header.Set("Content-Type", "application/json")
	if gz {
		req.Header.Set("Content-Encoding", "gzip")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndActions(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actions", nil))
	var list []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 10)
	assert.Equal(t, "action_check_rag_success", list[0]["name"])
}

const adviceCall = `{
  "next_action": "action_give_career_advice",
  "sender_id": "s1",
  "tracker": {
    "sender_id": "s1",
    "slots": {"career_interest": "software engineering"},
    "latest_message": {"text": "how do I start?"},
    "events": [{"event": "user", "text": "how do I start?", "timestamp": 1}]
  },
  "domain": {}
}`

func TestWebhookRunsAction(t *testing.T) {
	for _, gz := range []bool{false, true} {
		rec := post(newTestServer(t), adviceCall, gz)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Events    []map[string]any `json:"events"`
			Responses []map[string]any `json:"responses"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Responses, 1)
		assert.Equal(t, "Build a portfolio.", resp.Responses[0]["text"])
		assert.Equal(t, "adv-42", resp.Responses[0]["advice_id"])
		assert.Len(t, resp.Events, 3)
		assert.Equal(t, "slot", resp.Events[0]["event"])
	}
}

func TestWebhookErrors(t *testing.T) {
	h := newTestServer(t)

	rec := post(h, `{"next_action":"action_unknown","tracker":{}}`, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No registered action found for name 'action_unknown'.","action_name":"action_unknown"}`, rec.Body.String())

	rec = post(h, `{"next_action":"action_reject","tracker":{}}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rejected execution")

	rec = post(h, `{"next_action":"action_fail","tracker":{}}`, false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = post(h, `{not json`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(h, `{"tracker":{}}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "next_action"))
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{}
	cfg.ActionServer.CORSOrigins = []string{"http://localhost:*"}
	h := NewServer(cfg, actions.NewRegistry(nil), nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/webhook", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8501", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.True(t, originAllowed([]string{"*.wlv.ac.uk"}, "https://chat.wlv.ac.uk"))
	assert.False(t, originAllowed([]string{"https://a.example"}, "https://b.example"))
	assert.False(t, originAllowed([]string{"*"}, ""))
}
