package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

const handoffRecentUserMessages = 5

// HumanHandoff summarises the conversation for a human advisor.
type HumanHandoff struct {
	llm    llm.Client
	logger *log.Logger
}

func NewHumanHandoff(deps Deps) *HumanHandoff {
	deps = deps.withDefaults()
	return &HumanHandoff{llm: deps.LLM, logger: deps.Logger}
}

func (a *HumanHandoff) Name() string { return "action_human_handoff" }

func (a *HumanHandoff) Run(ctx context.Context, _ *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	var transcript, userLines []string
	for _, e := range t.Events {
		if !e.IsTurn() {
			continue
		}
		switch e.Type() {
		case tracker.EventUser:
			transcript = append(transcript, "user - "+e.Text())
			userLines = append(userLines, e.Text())
		case tracker.EventBot:
			transcript = append(transcript, "bot - "+e.Text())
		}
	}

	summary, err := a.summarise(ctx, transcript)
	if err != nil {
		a.logger.Warn(ctx, "handoff summary failed, listing recent messages", log.Err(err))
		summary = recentMessagesSummary(userLines)
	}

	a.logger.Info(ctx, "handing conversation to a human", log.KV("turns", len(transcript)))
	return []tracker.Event{
		tracker.BotUttered("This is a summary of our conversation.\nNotify them with this info:\n"+summary, nil, nil),
	}, nil
}

func (a *HumanHandoff) summarise(ctx context.Context, transcript []string) (string, error) {
	if a.llm == nil {
		return "", llm.ErrNotConfigured
	}
	resp, err := a.llm.Generate(ctx, llm.Request{Prompt: handoffPrompt(transcript)})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Text, nil
}

func recentMessagesSummary(userLines []string) string {
	if len(userLines) == 0 {
		return "The student has not sent any messages yet."
	}
	if len(userLines) > handoffRecentUserMessages {
		userLines = userLines[len(userLines)-handoffRecentUserMessages:]
	}
	var b strings.Builder
	b.WriteString("Recent student messages:")
	for i, line := range userLines {
		fmt.Fprintf(&b, "\n%d. %s", i+1, line)
	}
	return b.String()
}
