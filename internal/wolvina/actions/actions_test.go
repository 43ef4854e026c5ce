package actions

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolvina/wolvina-go/internal/wolvina/history"
	llmmock "github.com/wolvina/wolvina-go/internal/wolvina/llm/mock"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
	searchmock "github.com/wolvina/wolvina-go/internal/wolvina/tools/search/mock"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

func newTracker(latest string, slots map[string]any, events ...tracker.Event) *tracker.Tracker {
	return &tracker.Tracker{
		SenderID:      "student-1",
		Slots:         slots,
		LatestMessage: tracker.LatestMessage{Text: latest},
		Events:        events,
	}
}

func userAt(ts float64, text string) tracker.Event {
	return tracker.Event{"event": "user", "text": text, "timestamp": ts}
}

func botAt(ts float64, text string, metadata map[string]any) tracker.Event {
	e := tracker.Event{"event": "bot", "text": text, "timestamp": ts}
	if metadata != nil {
		e["metadata"] = metadata
	}
	return e
}

func slotsByName(events []tracker.Event) map[string]any {
	out := make(map[string]any)
	for _, e := range events {
		if e.Type() == tracker.EventSlot {
			out[e.Name()] = e.Value()
		}
	}
	return out
}

func TestGiveCareerAdviceSuccess(t *testing.T) {
	client := llmmock.Text("## Great question\nTry a placement year.")
	a := NewGiveCareerAdvice(Deps{LLM: client, NewID: func() string { return "adv-1" }})

	tr := newTracker("what should I do next?", map[string]any{
		SlotStudentName:    "Ada",
		SlotCurrentMajor:   "Computer Science",
		SlotCareerInterest: "data science",
		SlotHasInternship:  false,
	},
		userAt(1, "hi"),
		botAt(2, "hello", nil),
		userAt(3, "what should I do next?"),
	)

	d := tracker.NewDispatcher()
	events, err := a.Run(context.Background(), d, tr, nil)
	require.NoError(t, err)

	msgs := d.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "## Great question\nTry a placement year.", msgs[0].Text)
	assert.Equal(t, "adv-1", msgs[0].Kwargs["advice_id"])

	slots := slotsByName(events)
	assert.Equal(t, msgs[0].Text, slots[SlotLastSummary])
	assert.Equal(t, msgs[0].Text, slots[SlotLastAdviceFull])
	assert.Equal(t, "adv-1", slots[SlotLastAdviceID])

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.True(t, req.Grounded)
	assert.InDelta(t, 0.7, float64(req.Temperature), 1e-6)
	assert.InDelta(t, 0.8, float64(req.TopP), 1e-6)
	assert.EqualValues(t, 300, req.MaxOutputTokens)
	assert.Contains(t, req.SystemPrompt, "UK university")
	assert.Contains(t, req.Prompt, "- Name: Ada")
	assert.Contains(t, req.Prompt, "- Internship Experience: No")
	assert.Contains(t, req.Prompt, "User: hi\nAssistant: hello\nUser: what should I do next?")
	assert.Contains(t, req.Prompt, "**You might also want to explore:**")
}

func TestGiveCareerAdviceIncludesPreviousAdvice(t *testing.T) {
	client := llmmock.Text("more advice")
	a := NewGiveCareerAdvice(Deps{LLM: client})

	tr := newTracker("and then?", map[string]any{
		SlotCareerInterest: "law",
		SlotLastAdviceFull: "Apply for vacation schemes.",
		SlotLastAdviceID:   "adv-9",
	},
		userAt(1, "law please"),
		botAt(2, "Apply for vacation schemes.", map[string]any{"advice_id": "adv-9"}),
		userAt(3, "q1"), botAt(4, "a1", nil),
		userAt(5, "q2"), botAt(6, "a2", nil),
		userAt(7, "q3"), botAt(8, "a3", nil),
		userAt(9, "and then?"),
	)

	_, err := a.Run(context.Background(), tracker.NewDispatcher(), tr, nil)
	require.NoError(t, err)
	prompt := client.Requests()[0].Prompt
	assert.Contains(t, prompt, history.AdviceHeader+"\nAssistant: Apply for vacation schemes.")
}

func TestGiveCareerAdviceAsksForInterest(t *testing.T) {
	client := llmmock.Text("unused")
	a := NewGiveCareerAdvice(Deps{LLM: client})

	d := tracker.NewDispatcher()
	events, err := a.Run(context.Background(), d, newTracker("help", nil), nil)
	require.NoError(t, err)

	require.Len(t, d.Messages(), 1)
	assert.Equal(t, "utter_clarify_interest", d.Messages()[0].Response)
	assert.Equal(t, map[string]any{SlotNeedsClarification: true}, slotsByName(events))
	assert.Zero(t, client.Calls())
}

func TestGiveCareerAdviceAcknowledgesCorrection(t *testing.T) {
	a := NewGiveCareerAdvice(Deps{LLM: llmmock.Text("updated advice")})
	d := tracker.NewDispatcher()

	_, err := a.Run(context.Background(), d, newTracker("Actually I meant finance", map[string]any{SlotCareerInterest: "finance"}), nil)
	require.NoError(t, err)

	msgs := d.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "utter_correction_acknowledged", msgs[0].Response)
	assert.Equal(t, "updated advice", msgs[1].Text)
}

func TestGiveCareerAdviceFallback(t *testing.T) {
	for name, deps := range map[string]Deps{
		"llm error":  {LLM: llmmock.Failing(errors.New("quota exceeded"))},
		"empty text": {LLM: llmmock.Text("")},
		"no client":  {},
	} {
		t.Run(name, func(t *testing.T) {
			a := NewGiveCareerAdvice(deps)
			d := tracker.NewDispatcher()
			events, err := a.Run(context.Background(), d, newTracker("help", map[string]any{
				SlotCareerInterest: "nursing",
				SlotCurrentMajor:   "Health Sciences",
			}), nil)
			require.NoError(t, err)

			msgs := d.Messages()
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0].Text, "general guidance about nursing")
			assert.Contains(t, msgs[0].Text, "For Health Sciences in the UK")
			assert.Contains(t, msgs[0].Text, "career-space")

			slots := slotsByName(events)
			assert.Equal(t, history.FallbackSentinel, slots[SlotLastSummary])
			assert.Equal(t, history.FallbackSentinel, slots[SlotLastAdviceFull])
			v, ok := slots[SlotLastAdviceID]
			assert.True(t, ok)
			assert.Nil(t, v)
		})
	}
}

func TestSearchCareerAdvice(t *testing.T) {
	results := []search.Result{
		{Title: "A", URL: "https://a.example", Content: "alpha", Score: 0.9},
		{Title: "B", URL: "https://b.example", Content: "beta", Score: 0.8},
		{Title: "C", URL: "https://c.example", Content: "gamma", Score: 0.7},
		{Title: "D", URL: "https://d.example", Content: "delta", Score: 0.6},
		{Title: "E", URL: "https://e.example", Content: "epsilon", Score: 0.5},
		{Title: "F", URL: "https://f.example", Content: "zeta", Score: 0.4},
	}
	provider := searchmock.New("mock", results...)
	client := llmmock.Text("- Learn SQL 📊")
	a := NewSearchCareerAdvice(Deps{LLM: client, Search: search.NewTool(nil, "mock", provider)})

	d := tracker.NewDispatcher()
	events, err := a.Run(context.Background(), d, newTracker("find me advice", map[string]any{
		SlotCurrentMajor:   "Maths",
		SlotCareerInterest: "analytics",
		SlotYearOfStudy:    "2",
		SlotGPA:            "3.6",
		SlotHasInternship:  "yes",
	}), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	reqs := provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "2025 analytics career advice Maths 2 student 3.6 GPA with internship experience site:edu OR site:gov OR site:linkedin.com OR site:indeed.com", reqs[0].Query)
	assert.Equal(t, 10, reqs[0].MaxResults)

	prompt := client.Requests()[0].Prompt
	assert.Contains(t, prompt, "Snippets:\nalpha\nbeta\ngamma\ndelta\nepsilon")
	assert.NotContains(t, prompt, "zeta")

	msgs := d.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "utter_advice_core", msgs[0].Response)
	assert.Equal(t, "- Learn SQL 📊", msgs[0].Kwargs["advice_text"])
	assert.Equal(t, "Maths", msgs[0].Kwargs["current_major"])
	assert.Equal(t, "utter_encourage_human", msgs[1].Response)
	assert.Equal(t, "utter_cite_sources", msgs[2].Response)
	assert.Equal(t,
		"[1] https://a.example, [2] https://b.example, [3] https://c.example, [4] https://d.example, [5] https://e.example",
		msgs[2].Kwargs["sources_list"])
}

func TestSearchCareerAdviceFallback(t *testing.T) {
	provider := searchmock.Failing("mock", errors.New("boom"))
	a := NewSearchCareerAdvice(Deps{LLM: llmmock.Text("unused"), Search: search.NewTool(nil, "mock", provider)})

	d := tracker.NewDispatcher()
	_, err := a.Run(context.Background(), d, newTracker("", nil), nil)
	require.NoError(t, err)

	msgs := d.Messages()
	require.Len(t, msgs, 3)
	advice := msgs[0].Kwargs["advice_text"].(string)
	assert.Contains(t, advice, "guidance for careers in your major")
	assert.Contains(t, advice, "Hot 2025 roles")
	assert.Equal(t, "your year", msgs[0].Kwargs["year_of_study"])
	assert.Equal(t, searchFallbackSources, msgs[2].Kwargs["sources_list"])
}

func TestFollowupCareerAdvice(t *testing.T) {
	t.Run("no previous advice", func(t *testing.T) {
		client := llmmock.Text("unused")
		d := tracker.NewDispatcher()
		events, err := NewFollowupCareerAdvice(Deps{LLM: client}).Run(context.Background(), d, newTracker("more?", nil), nil)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, noPreviousAdviceText, d.Messages()[0].Text)
		assert.Zero(t, client.Calls())
	})

	t.Run("expands and records history", func(t *testing.T) {
		client := llmmock.Text("Here is more detail.")
		d := tracker.NewDispatcher()
		events, err := NewFollowupCareerAdvice(Deps{LLM: client}).Run(context.Background(), d, newTracker("tell me more", map[string]any{
			SlotLastSummary:      "Do an internship.",
			SlotFollowupQuestion: "Which companies?",
			SlotAdviceHistory:    []any{"Do an internship."},
		}), nil)
		require.NoError(t, err)

		assert.Equal(t, "Here is more detail.", d.Messages()[0].Text)
		slots := slotsByName(events)
		assert.Equal(t, "Here is more detail.", slots[SlotLastSummary])
		assert.Equal(t, []string{"Do an internship.", "Here is more detail."}, slots[SlotAdviceHistory])

		prompt := client.Requests()[0].Prompt
		assert.Contains(t, prompt, `Now they're asking: "Which companies?"`)
		assert.Contains(t, prompt, "1. Do an internship.")
	})

	t.Run("failure", func(t *testing.T) {
		d := tracker.NewDispatcher()
		events, err := NewFollowupCareerAdvice(Deps{LLM: llmmock.Failing(errors.New("down"))}).Run(context.Background(), d,
			newTracker("more", map[string]any{SlotLastSummary: "x"}), nil)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, followupFailedText, d.Messages()[0].Text)
	})
}

func TestHumanHandoff(t *testing.T) {
	events := []tracker.Event{
		userAt(1, "I need help with my CV"),
		botAt(2, "Sure", nil),
		tracker.SlotSet("gpa", "3.1"),
		userAt(3, "Can I talk to someone?"),
	}

	t.Run("summary", func(t *testing.T) {
		client := llmmock.Text("Student wants CV help.")
		out, err := NewHumanHandoff(Deps{LLM: client}).Run(context.Background(), tracker.NewDispatcher(), newTracker("", nil, events...), nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, tracker.EventBot, out[0].Type())
		assert.Equal(t, "This is a summary of our conversation.\nNotify them with this info:\nStudent wants CV help.", out[0].Text())
		assert.Contains(t, client.Requests()[0].Prompt, "user - I need help with my CV\nbot - Sure\nuser - Can I talk to someone?")
	})

	t.Run("fallback lists user messages", func(t *testing.T) {
		out, err := NewHumanHandoff(Deps{}).Run(context.Background(), tracker.NewDispatcher(), newTracker("", nil, events...), nil)
		require.NoError(t, err)
		text := out[0].Text()
		assert.Contains(t, text, "1. I need help with my CV")
		assert.Contains(t, text, "2. Can I talk to someone?")
		assert.NotContains(t, text, "Sure")
	})
}

func TestCheckRAGSuccess(t *testing.T) {
	cases := []struct {
		name   string
		events []tracker.Event
		want   bool
	}{
		{"no bot events", nil, true},
		{"answered", []tracker.Event{botAt(1, "answer", map[string]any{"utter_action": "utter_kb_answer"})}, true},
		{"no knowledge base", []tracker.Event{botAt(1, "x", map[string]any{"utter_action": "utter_no_knowledge_base"})}, false},
		{"no relevant answer", []tracker.Event{
			botAt(1, "x", map[string]any{"utter_action": "utter_kb_answer"}),
			botAt(2, "y", map[string]any{"utter_action": "utter_no_relevant_answer_found"}),
			userAt(3, "hmm"),
		}, false},
	}
	a := NewCheckRAGSuccess(Deps{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := a.Run(context.Background(), tracker.NewDispatcher(), newTracker("", nil, tc.events...), nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{SlotRAGResultFound: tc.want}, slotsByName(out))
		})
	}
}

func TestValidateCareerAdvice(t *testing.T) {
	tr := newTracker("", nil,
		userAt(1, "skip"),
		tracker.SlotSet(SlotStudentName, "I'd prefer not to say"),
		tracker.SlotSet(SlotYearOfStudy, "Not sure yet"),
		tracker.SlotSet(SlotGPA, "3.8"),
		tracker.SlotSet(SlotHasInternship, "pass"),
		tracker.SlotSet(SlotVisaStatus, "not relevant"),
		tracker.SlotSet(SlotCareerInterest, "skip"),
	)

	out, err := NewValidateCareerAdvice(Deps{}).Run(context.Background(), tracker.NewDispatcher(), tr, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(out))
	for _, e := range out {
		names = append(names, e.Name())
	}
	assert.IsIncreasing(t, names)
	assert.Equal(t, map[string]any{
		SlotStudentName:    "Student",
		SlotYearOfStudy:    "not_specified",
		SlotGPA:            "3.8",
		SlotHasInternship:  nil,
		SlotVisaStatus:     "not_specified",
		SlotCareerInterest: "skip",
	}, slotsByName(out))
}

func TestFindAdvisorContact(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "contacts.txt")
	require.NoError(t, os.WriteFile(file, []byte("Computer Science: cs.advisor@university.edu"), 0o600))

	t.Run("specific topic", func(t *testing.T) {
		client := llmmock.Text("Email cs.advisor@university.edu")
		d := tracker.NewDispatcher()
		out, err := NewFindAdvisorContact(Deps{LLM: client, ContactsFile: file}).Run(context.Background(), d,
			newTracker("", map[string]any{SlotUserQuery: "computer science modules"}), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, "Email cs.advisor@university.edu", d.Messages()[0].Text)

		prompt := client.Requests()[0].Prompt
		assert.Contains(t, prompt, "QUERY: Contact information for an academic advisor related to: computer science modules")
		assert.Contains(t, prompt, "cs.advisor@university.edu")
	})

	t.Run("short query uses general topic", func(t *testing.T) {
		client := llmmock.Text("General support")
		_, err := NewFindAdvisorContact(Deps{LLM: client, ContactsFile: file}).Run(context.Background(), tracker.NewDispatcher(),
			newTracker("", map[string]any{SlotUserQuery: "help"}), nil)
		require.NoError(t, err)
		assert.Contains(t, client.Requests()[0].Prompt, "QUERY: General academic support advisor contact information")
	})

	failures := map[string]struct {
		deps Deps
		want string
	}{
		"no client":    {Deps{ContactsFile: file}, contactNoLLMText},
		"missing file": {Deps{LLM: llmmock.Text("x"), ContactsFile: filepath.Join(dir, "missing.txt")}, contactNoFileText},
		"llm error":    {Deps{LLM: llmmock.Failing(errors.New("down")), ContactsFile: file}, contactLLMFailedText},
	}
	for name, tc := range failures {
		t.Run(name, func(t *testing.T) {
			d := tracker.NewDispatcher()
			_, err := NewFindAdvisorContact(tc.deps).Run(context.Background(), d, newTracker("", nil), nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Messages()[0].Text)
		})
	}
}

func TestGetUserQuery(t *testing.T) {
	out, err := NewGetUserQuery().Run(context.Background(), tracker.NewDispatcher(), newTracker("who is my advisor?", nil), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{SlotUserQuery: "who is my advisor?"}, slotsByName(out))
}

func TestRegistryExecute(t *testing.T) {
	r := Default(Deps{LLM: llmmock.Text("ok")})
	assert.Len(t, r.Names(), 8)
	assert.Contains(t, r.Names(), "action_give_career_advice")

	_, err := r.Execute(context.Background(), tracker.ActionCall{NextAction: "action_missing"})
	var notFound *tracker.ActionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "action_missing", notFound.ActionName)

	resp, err := r.Execute(context.Background(), tracker.ActionCall{
		NextAction: "action_get_user_query",
		Tracker:    *newTracker("hello", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Events[0].Value())
	assert.NotNil(t, resp.Responses)
}

type rejecting struct{}

func (rejecting) Name() string { return "action_reject" }

func (rejecting) Run(context.Context, *tracker.Dispatcher, *tracker.Tracker, tracker.Domain) ([]tracker.Event, error) {
	return nil, &tracker.RejectionError{ActionName: "action_reject"}
}

type exploding struct{}

func (exploding) Name() string { return "action_explode" }

func (exploding) Run(context.Context, *tracker.Dispatcher, *tracker.Tracker, tracker.Domain) ([]tracker.Event, error) {
	return nil, errors.New("kaboom")
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(rejecting{}, exploding{})

	_, err := r.Execute(context.Background(), tracker.ActionCall{NextAction: "action_reject"})
	var rejection *tracker.RejectionError
	require.ErrorAs(t, err, &rejection)

	_, err = r.Execute(context.Background(), tracker.ActionCall{NextAction: "action_explode"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "run action_explode"))
}
