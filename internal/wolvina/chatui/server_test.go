package chatui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRasa struct {
	*httptest.Server
	mu  sync.Mutex
	got []map[string]string
}

func (f *fakeRasa) received() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.got...)
}

func newFakeRasa(t *testing.T, status int) *fakeRasa {
	t.Helper()
	f := &fakeRasa{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(status)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.got = append(f.got, body)
		f.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode([]BotMessage{
			{Text: "Hi " + body["sender"]},
			{Text: "Pick one", Buttons: []tracker.Button{{Title: "Careers", Payload: "/ask_career"}}},
		})
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRasa) webhook() string { return f.URL + "/webhooks/rest/webhook" }

func TestWebSocketExchange(t *testing.T) {
	rasa := newFakeRasa(t, http.StatusOK)
	store := NewMemoryStore()
	s := NewServer(NewRasaClient(rasa.webhook(), time.Second), store, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?sender=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Inbound{Message: "/ask_career", Title: "Careers"}))

	var first, second Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, RoleAssistant, first.Role)
	assert.Equal(t, "Hi alice", first.Text)
	assert.Equal(t, "/ask_career", second.Buttons[0].Payload)

	got := rasa.received()
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"sender": "alice", "message": "/ask_career"}, got[0])

	history, err := store.History(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, Message{Role: RoleUser, Text: "Careers", Time: history[0].Time}, history[0])

	// a reconnect replays the transcript
	conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn2.Close()
	var replay Message
	require.NoError(t, conn2.ReadJSON(&replay))
	assert.Equal(t, "Careers", replay.Text)
}

func TestExchangeReportsErrors(t *testing.T) {
	rasa := newFakeRasa(t, http.StatusInternalServerError)
	s := NewServer(NewRasaClient(rasa.webhook(), time.Second), nil, nil)

	out := s.exchange(context.Background(), "bob", Inbound{Message: "hello"})
	require.Len(t, out, 1)
	assert.Equal(t, "Error: Rasa server returned 500", out[0].Text)

	s = NewServer(NewRasaClient("http://127.0.0.1:1/webhooks/rest/webhook", time.Second), nil, nil)
	out = s.exchange(context.Background(), "bob", Inbound{Message: "hello"})
	assert.True(t, strings.HasPrefix(out[0].Text, "Connection error: "))
}

func TestHistoryRoutes(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), "carol", Message{Role: RoleUser, Text: "hi"}))
	s := NewServer(NewRasaClient("http://127.0.0.1:1/webhooks/rest/webhook", time.Second), store, nil)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?sender=carol", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"hi"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history?sender=carol", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	history, _ := store.History(context.Background(), "carol")
	assert.Empty(t, history)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndIndex(t *testing.T) {
	rasa := newFakeRasa(t, http.StatusOK)
	h := NewServer(NewRasaClient(rasa.webhook(), time.Second), nil, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.JSONEq(t, `{"connected":true,"server":"`+rasa.URL+`","detail":"Connected to Rasa server"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wolvina Assistant")

	down := NewServer(NewRasaClient("http://127.0.0.1:1/webhooks/rest/webhook", time.Second), nil, nil).Handler()
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Contains(t, rec.Body.String(), `"connected":false`)
}

func TestStatusReportsStorageHealth(t *testing.T) {
	rasa := newFakeRasa(t, http.StatusOK)
	s := NewServer(NewRasaClient(rasa.webhook(), time.Second), nil, nil).
		WithHealth(func(context.Context) map[string]string {
			return map[string]string{"chat_history": "healthy"}
		})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.JSONEq(t, `{"connected":true,"server":"`+rasa.URL+`","detail":"Connected to Rasa server","storage":{"chat_history":"healthy"}}`, rec.Body.String())
}
