package actions

import (
	"context"
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/history"
	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

var correctionPhrases = []string{"actually", "i meant", "sorry", "correction", "change that", "i said"}

// GiveCareerAdvice generates grounded, profile-aware advice with the
// recent conversation as context.
type GiveCareerAdvice struct {
	llm     llm.Client
	logger  *log.Logger
	history history.Options
	newID   func() string
}

func NewGiveCareerAdvice(deps Deps) *GiveCareerAdvice {
	deps = deps.withDefaults()
	return &GiveCareerAdvice{llm: deps.LLM, logger: deps.Logger, history: deps.History, newID: deps.NewID}
}

func (a *GiveCareerAdvice) Name() string { return "action_give_career_advice" }

func (a *GiveCareerAdvice) Run(ctx context.Context, d *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	latest := t.LatestText()
	isCorrection := containsAny(strings.ToLower(latest), correctionPhrases)

	conversation := history.Build(
		history.TurnsFromEvents(t.Events),
		history.Advice{
			Text: t.SlotString(SlotLastAdviceFull, ""),
			ID:   t.SlotString(SlotLastAdviceID, ""),
		},
		a.history,
	)

	profile := ProfileFromTracker(t)
	if !profile.HasInterest() {
		a.logger.Info(ctx, "career interest missing, asking for clarification")
		d.UtterResponse("utter_clarify_interest", nil)
		return []tracker.Event{tracker.SlotSet(SlotNeedsClarification, true)}, nil
	}

	if isCorrection {
		d.UtterResponse("utter_correction_acknowledged", nil)
	}

	a.logger.Debug(ctx, "building advice prompt",
		log.KV("major", profile.Major),
		log.KV("year", profile.Year),
		log.KV("interest", profile.Interest),
		log.KV("internship", profile.Internship),
		log.KV("correction", isCorrection),
		log.KV("context_chars", len(conversation)))

	advice, err := a.generate(ctx, careerAdvicePrompt(profile, conversation, latest))
	if err != nil {
		a.logger.Warn(ctx, "advice generation failed, using fallback", log.Err(err))
		d.UtterText(fallbackAdvice(
			t.SlotString(SlotCareerInterest, "your field"),
			t.SlotString(SlotCurrentMajor, "your major"),
		))
		return []tracker.Event{
			tracker.SlotSet(SlotLastSummary, history.FallbackSentinel),
			tracker.SlotSet(SlotLastAdviceFull, history.FallbackSentinel),
			tracker.SlotSet(SlotLastAdviceID, nil),
		}, nil
	}

	id := a.newID()
	d.UtterMessage(tracker.Message{Text: advice, Kwargs: map[string]any{"advice_id": id}})
	a.logger.Info(ctx, "career advice generated", log.KV("advice_id", id), log.KV("chars", len(advice)))

	return []tracker.Event{
		tracker.SlotSet(SlotLastSummary, advice),
		tracker.SlotSet(SlotLastAdviceFull, advice),
		tracker.SlotSet(SlotLastAdviceID, id),
	}, nil
}

func (a *GiveCareerAdvice) generate(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil {
		return "", llm.ErrNotConfigured
	}
	resp, err := a.llm.Generate(ctx, llm.Request{
		SystemPrompt:    careerAdvisorSystemPrompt,
		Prompt:          prompt,
		Temperature:     0.7,
		TopP:            0.8,
		MaxOutputTokens: 300,
		Grounded:        true,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Text, nil
}
