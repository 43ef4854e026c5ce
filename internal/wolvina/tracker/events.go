package tracker

// Event types emitted and consumed by the dialogue manager.
const (
	EventUser   = "user"
	EventBot    = "bot"
	EventSlot   = "slot"
	EventAction = "action"
)

// Event is one entry of the tracker event log. The dialogue manager sends
// many event kinds with different shapes, so events stay open JSON objects
// and are read through accessors.
type Event map[string]any

// Type returns the event discriminator ("user", "bot", "slot", ...).
func (e Event) Type() string {
	s, _ := e["event"].(string)
	return s
}

// Text returns the message text of user and bot events.
func (e Event) Text() string {
	s, _ := e["text"].(string)
	return s
}

// Name returns the slot or action name.
func (e Event) Name() string {
	s, _ := e["name"].(string)
	return s
}

// Value returns the value of a slot event.
func (e Event) Value() any {
	return e["value"]
}

// Timestamp returns the event time in epoch seconds; 0 when absent.
func (e Event) Timestamp() float64 {
	switch v := e["timestamp"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Metadata returns the event metadata, never nil.
func (e Event) Metadata() map[string]any {
	if m, ok := e["metadata"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// MetadataString returns a string metadata value.
func (e Event) MetadataString(key string) string {
	s, _ := e.Metadata()[key].(string)
	return s
}

// IsTurn reports whether the event is a user or bot message with non-empty
// text. Whitespace-only text still counts.
func (e Event) IsTurn() bool {
	t := e.Type()
	return (t == EventUser || t == EventBot) && e.Text() != ""
}

// SlotSet sets a slot on the tracker.
func SlotSet(name string, value any) Event {
	return Event{"event": EventSlot, "timestamp": nil, "name": name, "value": value}
}

// BotUttered appends a bot message to the conversation.
func BotUttered(text string, data, metadata map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Event{"event": EventBot, "timestamp": nil, "text": text, "data": data, "metadata": metadata}
}
