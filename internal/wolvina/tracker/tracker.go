package tracker

import (
	"fmt"
	"strings"
)

// ActionCall is the body the dialogue manager posts to the action webhook.
type ActionCall struct {
	NextAction string  `json:"next_action"`
	SenderID   string  `json:"sender_id"`
	Tracker    Tracker `json:"tracker"`
	Domain     Domain  `json:"domain"`
	Version    string  `json:"version"`
}

// Domain is passed through untouched.
type Domain map[string]any

// Tracker is the conversation state snapshot sent with every action call.
type Tracker struct {
	SenderID           string         `json:"sender_id"`
	Slots              map[string]any `json:"slots"`
	LatestMessage      LatestMessage  `json:"latest_message"`
	Events             []Event        `json:"events"`
	Paused             bool           `json:"paused"`
	FollowupAction     *string        `json:"followup_action"`
	ActiveLoop         ActiveLoop     `json:"active_loop"`
	LatestActionName   string         `json:"latest_action_name"`
	LatestInputChannel string         `json:"latest_input_channel,omitempty"`
}

// LatestMessage is the parse result of the most recent user message.
type LatestMessage struct {
	Text     string         `json:"text"`
	Intent   Intent         `json:"intent"`
	Entities []any          `json:"entities,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Intent is the classified intent of a user message.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ActiveLoop names the running form, if any.
type ActiveLoop struct {
	Name string `json:"name,omitempty"`
}

// ActionResponse is returned to the dialogue manager.
type ActionResponse struct {
	Events    []Event   `json:"events"`
	Responses []Message `json:"responses"`
}

// Slot returns the raw slot value or nil.
func (t *Tracker) Slot(name string) any {
	if t.Slots == nil {
		return nil
	}
	return t.Slots[name]
}

// SlotString returns the slot as text, or def when unset or empty.
func (t *Tracker) SlotString(name, def string) string {
	switch v := t.Slot(name).(type) {
	case nil:
		return def
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// SlotBool interprets common truthy spellings. It returns nil when the
// slot is unset.
func (t *Tracker) SlotBool(name string) *bool {
	v := t.Slot(name)
	if v == nil {
		return nil
	}
	var b bool
	switch x := v.(type) {
	case bool:
		b = x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			b = true
		}
	case float64:
		b = x != 0
	}
	return &b
}

// SlotList returns a list slot as strings.
func (t *Tracker) SlotList(name string) []string {
	raw, ok := t.Slot(name).([]any)
	if !ok {
		if s, ok := t.Slot(name).([]string); ok {
			return append([]string(nil), s...)
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// LatestText returns the text of the latest user message.
func (t *Tracker) LatestText() string {
	return t.LatestMessage.Text
}

// LastBotEvent returns the most recent bot event, or nil.
func (t *Tracker) LastBotEvent() Event {
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].Type() == EventBot {
			return t.Events[i]
		}
	}
	return nil
}

// SlotsToValidate returns the slots set by the trailing run of slot events,
// i.e. the values extracted since the last non-slot event. When a slot is set
// more than once in the run, the earliest value wins.
func (t *Tracker) SlotsToValidate() map[string]any {
	start := len(t.Events)
	for start > 0 && t.Events[start-1].Type() == EventSlot {
		start--
	}
	slots := make(map[string]any)
	for _, e := range t.Events[start:] {
		if _, seen := slots[e.Name()]; !seen {
			slots[e.Name()] = e.Value()
		}
	}
	return slots
}
