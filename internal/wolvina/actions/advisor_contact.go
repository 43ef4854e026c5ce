package actions

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

const (
	contactNoLLMText     = "I'm sorry, I cannot connect to the contact database right now."
	contactNoFileText    = "I'm sorry, I couldn't access the specific advisor contact list."
	contactLLMFailedText = "I had trouble retrieving the specific contact, but you can always reach out to the General Academic Support at **student.support@university.edu**."
)

// FindAdvisorContact answers contact questions from the advisor list file.
type FindAdvisorContact struct {
	llm          llm.Client
	logger       *log.Logger
	contactsFile string
}

func NewFindAdvisorContact(deps Deps) *FindAdvisorContact {
	deps = deps.withDefaults()
	return &FindAdvisorContact{llm: deps.LLM, logger: deps.Logger, contactsFile: deps.ContactsFile}
}

func (a *FindAdvisorContact) Name() string { return "action_find_advisor_contact" }

func (a *FindAdvisorContact) Run(ctx context.Context, d *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	if a.llm == nil {
		d.UtterText(contactNoLLMText)
		return []tracker.Event{}, nil
	}

	doc, err := os.ReadFile(a.contactsFile)
	if err != nil {
		a.logger.Error(ctx, "advisor contact list unavailable", log.Err(errors.Wrap(err, a.contactsFile)))
		d.UtterText(contactNoFileText)
		return []tracker.Event{}, nil
	}

	query := "General academic support advisor contact information"
	if topic := t.SlotString(SlotUserQuery, ""); len(topic) > 5 {
		query = "Contact information for an academic advisor related to: " + topic
	}

	resp, err := a.llm.Generate(ctx, llm.Request{Prompt: advisorContactPrompt(string(doc), query)})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		a.logger.Warn(ctx, "advisor lookup failed", log.Err(err))
		d.UtterText(contactLLMFailedText)
		return []tracker.Event{}, nil
	}

	d.UtterText(resp.Text)
	return []tracker.Event{}, nil
}
