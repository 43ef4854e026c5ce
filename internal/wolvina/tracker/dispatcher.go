package tracker

import (
	"encoding/json"
	"sync"
)

// Button is a quick-reply option shown under a message.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Message is one response queued for the user. Kwargs are merged into the
// top level of the JSON object so that response templates can reference
// them and the dialogue manager copies them into the bot event metadata.
type Message struct {
	Text       string
	Response   string
	Buttons    []Button
	Elements   []any
	Custom     map[string]any
	Image      string
	Attachment string
	Kwargs     map[string]any
}

// MarshalJSON produces the flat shape expected by the dialogue manager.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 8+len(m.Kwargs))
	for k, v := range m.Kwargs {
		out[k] = v
	}
	out["text"] = nullable(m.Text)
	out["response"] = nullable(m.Response)
	out["template"] = nullable(m.Response)
	out["image"] = nullable(m.Image)
	out["attachment"] = nullable(m.Attachment)
	buttons := m.Buttons
	if buttons == nil {
		buttons = []Button{}
	}
	out["buttons"] = buttons
	elements := m.Elements
	if elements == nil {
		elements = []any{}
	}
	out["elements"] = elements
	custom := m.Custom
	if custom == nil {
		custom = map[string]any{}
	}
	out["custom"] = custom
	return json.Marshal(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Dispatcher collects the messages an action wants sent to the user.
type Dispatcher struct {
	mu       sync.Mutex
	messages []Message
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// UtterMessage queues a message.
func (d *Dispatcher) UtterMessage(m Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, m)
}

// UtterText queues a plain text message.
func (d *Dispatcher) UtterText(text string) {
	d.UtterMessage(Message{Text: text})
}

// UtterResponse queues a domain response template with template variables.
func (d *Dispatcher) UtterResponse(name string, kwargs map[string]any) {
	d.UtterMessage(Message{Response: name, Kwargs: kwargs})
}

// Messages returns a copy of the queued messages.
func (d *Dispatcher) Messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.messages))
	copy(out, d.messages)
	return out
}
