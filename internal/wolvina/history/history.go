// Package history renders the recent dialogue into the plain-text
// conversation context that is embedded in advice prompts.
package history

import (
	"sort"
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// Role of a speaker in the rendered context.
type Role string

const (
	RoleUser      Role = "User"
	RoleAssistant Role = "Assistant"
)

// AdviceHeader separates the recent window from the re-attached advice.
const AdviceHeader = "\n--- Previous Career Advice (for context) ---"

// Placeholder values written to the advice slot when generation failed.
// Both spellings have been stored by earlier releases.
var fallbackSentinels = map[string]struct{}{
	"Fallback advice was provided": {},
	"Fallback advice provided":     {},
}

// FallbackSentinel is the value the advice action stores on failure.
const FallbackSentinel = "Fallback advice was provided"

// IsSentinel reports whether the stored advice is a failure placeholder.
func IsSentinel(advice string) bool {
	_, ok := fallbackSentinels[advice]
	return ok
}

// Turn is one user or assistant message.
type Turn struct {
	Role      Role
	Text      string
	Timestamp float64
	AdviceID  string
}

// Options tune how much history is kept and how it is abbreviated.
type Options struct {
	MaxConversationTurns    int // pairs of user+assistant messages
	ExpireAfterUserMessages int
	MaxAssistantChars       int // longer non-latest assistant turns are abbreviated
	KeepChars               int // runes kept from an abbreviated turn
}

// DefaultOptions mirror the package-level defaults.
func DefaultOptions() Options {
	return Options{
		MaxConversationTurns:    5,
		ExpireAfterUserMessages: 20,
		MaxAssistantChars:       100,
		KeepChars:               20,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxConversationTurns <= 0 {
		o.MaxConversationTurns = def.MaxConversationTurns
	}
	if o.ExpireAfterUserMessages <= 0 {
		o.ExpireAfterUserMessages = def.ExpireAfterUserMessages
	}
	if o.MaxAssistantChars <= 0 {
		o.MaxAssistantChars = def.MaxAssistantChars
	}
	if o.KeepChars <= 0 {
		o.KeepChars = def.KeepChars
	}
	return o
}

// Advice identifies the most recently stored full advice.
type Advice struct {
	Text string
	ID   string
}

func (a Advice) present() bool {
	return a.Text != "" && !IsSentinel(a.Text)
}

// matches reports whether the turn is the stored advice. The id wins when
// both sides carry one; exact text equality is the fallback.
func (a Advice) matches(t Turn) bool {
	if t.Role != RoleAssistant || a.Text == "" {
		return false
	}
	if a.ID != "" && t.AdviceID != "" {
		return a.ID == t.AdviceID
	}
	return t.Text == a.Text
}

// TurnsFromEvents extracts user and bot messages with non-empty text.
func TurnsFromEvents(events []tracker.Event) []Turn {
	turns := make([]Turn, 0, len(events))
	for _, e := range events {
		if !e.IsTurn() {
			continue
		}
		role := RoleUser
		if e.Type() == tracker.EventBot {
			role = RoleAssistant
		}
		turns = append(turns, Turn{
			Role:      role,
			Text:      e.Text(),
			Timestamp: e.Timestamp(),
			AdviceID:  e.MetadataString("advice_id"),
		})
	}
	return turns
}

// Build renders the recent conversation window, optionally followed by the
// stored advice when it is still relevant and not already visible.
func Build(turns []Turn, advice Advice, opts Options) string {
	opts = opts.normalized()

	messages := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if (t.Role == RoleUser || t.Role == RoleAssistant) && t.Text != "" {
			messages = append(messages, t)
		}
	}

	var adviceTS float64
	adviceFound := false
	for _, t := range messages {
		if advice.matches(t) {
			adviceTS = t.Timestamp
			adviceFound = true
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
	recent := messages
	if limit := opts.MaxConversationTurns * 2; len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	expired := false
	if adviceFound {
		since := 0
		for _, t := range messages {
			if t.Role == RoleUser && t.Timestamp > adviceTS {
				since++
			}
		}
		expired = since > opts.ExpireAfterUserMessages
	}

	lastBot := -1
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role == RoleAssistant {
			lastBot = i
			break
		}
	}

	lines := make([]string, 0, len(recent)+2)
	for i, t := range recent {
		text := t.Text
		if t.Role == RoleAssistant && i != lastBot {
			text = abbreviate(text, opts.MaxAssistantChars, opts.KeepChars)
		}
		lines = append(lines, string(t.Role)+": "+text)
	}

	if advice.present() && !expired && !alreadyVisible(recent, lastBot, advice) {
		lines = append(lines, AdviceHeader, string(RoleAssistant)+": "+advice.Text)
	}

	return strings.Join(lines, "\n")
}

func alreadyVisible(recent []Turn, lastBot int, advice Advice) bool {
	if lastBot < 0 {
		return false
	}
	last := recent[lastBot]
	if last.Text == advice.Text {
		return true
	}
	return advice.ID != "" && last.AdviceID == advice.ID
}

func abbreviate(text string, maxChars, keep int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	return string(runes[:keep]) + "..."
}
