package actions

import (
	"context"
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

const (
	noPreviousAdviceText = "I don't seem to have previous advice stored yet. What would you like to know?"
	followupFailedText   = "I couldn't expand on that right now. Could you try rephrasing your question?"
)

// FollowupCareerAdvice expands on the most recent advice.
type FollowupCareerAdvice struct {
	llm    llm.Client
	logger *log.Logger
}

func NewFollowupCareerAdvice(deps Deps) *FollowupCareerAdvice {
	deps = deps.withDefaults()
	return &FollowupCareerAdvice{llm: deps.LLM, logger: deps.Logger}
}

func (a *FollowupCareerAdvice) Name() string { return "action_followup_career_advice" }

func (a *FollowupCareerAdvice) Run(ctx context.Context, d *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	summary := t.SlotString(SlotLastSummary, "")
	if summary == "" {
		d.UtterText(noPreviousAdviceText)
		return []tracker.Event{}, nil
	}

	question := t.SlotString(SlotFollowupQuestion, t.LatestText())
	past := t.SlotList(SlotAdviceHistory)

	if a.llm == nil {
		d.UtterText(followupFailedText)
		return []tracker.Event{}, nil
	}
	resp, err := a.llm.Generate(ctx, llm.Request{
		SystemPrompt: counsellorSystemPrompt,
		Prompt:       followupPrompt(summary, question, past),
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		a.logger.Warn(ctx, "followup generation failed", log.Err(err))
		d.UtterText(followupFailedText)
		return []tracker.Event{}, nil
	}

	d.UtterText(resp.Text)
	return []tracker.Event{
		tracker.SlotSet(SlotLastSummary, resp.Text),
		tracker.SlotSet(SlotAdviceHistory, append(past, resp.Text)),
	}, nil
}
