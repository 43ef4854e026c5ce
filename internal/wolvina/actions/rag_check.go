package actions

import (
	"context"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

var noAnswerResponses = map[string]struct{}{
	"utter_no_knowledge_base":        {},
	"utter_no_relevant_answer_found": {},
}

// CheckRAGSuccess records whether the knowledge base answered the last
// question, judged by which response the bot last uttered.
type CheckRAGSuccess struct {
	logger *log.Logger
}

func NewCheckRAGSuccess(deps Deps) *CheckRAGSuccess {
	deps = deps.withDefaults()
	return &CheckRAGSuccess{logger: deps.Logger}
}

func (a *CheckRAGSuccess) Name() string { return "action_check_rag_success" }

func (a *CheckRAGSuccess) Run(ctx context.Context, _ *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	found := true
	if last := t.LastBotEvent(); last != nil {
		if _, miss := noAnswerResponses[last.MetadataString("utter_action")]; miss {
			found = false
		}
	}
	a.logger.Debug(ctx, "knowledge base check", log.KV("found", found))
	return []tracker.Event{tracker.SlotSet(SlotRAGResultFound, found)}, nil
}
