package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvina/wolvina-go/internal/wolvina/actions"
	llmmock "github.com/wolvina/wolvina-go/internal/wolvina/llm/mock"
)

const trackerJSON = `{
  "sender_id": "cli",
  "slots": {"career_interest": "teaching", "last_career_advice_full": "Get a PGCE.", "last_career_advice_id": "a1"},
  "latest_message": {"text": "what about salary?"},
  "events": [
    {"event": "user", "text": "teaching please", "timestamp": 1},
    {"event": "bot", "text": "Get a PGCE.", "timestamp": 2, "metadata": {"advice_id": "a1"}},
    {"event": "user", "text": "q1", "timestamp": 3},
    {"event": "bot", "text": "a1", "timestamp": 4},
    {"event": "user", "text": "q2", "timestamp": 5},
    {"event": "bot", "text": "a2", "timestamp": 6},
    {"event": "user", "text": "what about salary?", "timestamp": 7}
  ]
}`

func writeTracker(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.json")
	require.NoError(t, os.WriteFile(path, []byte(trackerJSON), 0o600))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	registryFactory = func(context.Context) *actions.Registry {
		return actions.Default(actions.Deps{LLM: llmmock.Text("Salaries start near £30k."), NewID: func() string { return "new-id" }})
	}
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestActionsCommand(t *testing.T) {
	out := execute(t, "actions")
	assert.Contains(t, out, "action_give_career_advice\n")
	assert.Contains(t, out, "validate_career_advice\n")
}

func TestContextCommand(t *testing.T) {
	path := writeTracker(t)

	out := execute(t, "context", "--tracker", path, "--turns", "2")
	assert.Contains(t, out, "Assistant: a1\nUser: q2\nAssistant: a2\nUser: what about salary?")
	assert.Contains(t, out, "Assistant: Get a PGCE.")
	assert.NotContains(t, out, "teaching please")

	out = execute(t, "context", "--tracker", path, "--turns", "2", "--expire", "1")
	assert.NotContains(t, out, "Previous Career Advice")
}

func TestRunCommand(t *testing.T) {
	out := execute(t, "run", "action_give_career_advice", "--tracker", writeTracker(t))

	var resp struct {
		Events    []map[string]any `json:"events"`
		Responses []map[string]any `json:"responses"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Salaries start near £30k.", resp.Responses[0]["text"])
	assert.Equal(t, "new-id", resp.Responses[0]["advice_id"])
}
