// Package actions implements the custom actions invoked by the dialogue
// manager through the action webhook.
package actions

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wolvina/wolvina-go/internal/wolvina/config"
	contextx "github.com/wolvina/wolvina-go/internal/wolvina/context"
	"github.com/wolvina/wolvina-go/internal/wolvina/history"
	"github.com/wolvina/wolvina-go/internal/wolvina/llm"
	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tools/search"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// Action is a named handler run by the dialogue manager.
type Action interface {
	Name() string
	Run(ctx context.Context, d *tracker.Dispatcher, t *tracker.Tracker, domain tracker.Domain) ([]tracker.Event, error)
}

// Deps are the collaborators shared by the built-in actions. LLM and
// Search may be nil, in which case the actions answer with fallback text.
type Deps struct {
	Logger       *log.Logger
	LLM          llm.Client
	Search       *search.Tool
	History      history.Options
	ContactsFile string
	NewID        func() string
}

// DepsFromConfig fills the non-client fields from configuration.
func DepsFromConfig(cfg *config.Config, logger *log.Logger, client llm.Client, tool *search.Tool) Deps {
	opts := history.DefaultOptions()
	opts.MaxConversationTurns = cfg.Advice.MaxConversationTurns
	opts.ExpireAfterUserMessages = cfg.Advice.ExpireAfterUserMessages
	return Deps{
		Logger:       logger,
		LLM:          client,
		Search:       tool,
		History:      opts,
		ContactsFile: cfg.Advice.ContactsFile,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = log.Nop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.History == (history.Options{}) {
		d.History = history.Options{MaxConversationTurns: 3, ExpireAfterUserMessages: 5}
	}
	return d
}

// Registry maps action names to actions.
type Registry struct {
	logger  *log.Logger
	actions map[string]Action
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{logger: logger, actions: make(map[string]Action)}
}

// Default returns a registry holding every built-in action.
func Default(deps Deps) *Registry {
	deps = deps.withDefaults()
	r := NewRegistry(deps.Logger)
	r.Register(
		NewGiveCareerAdvice(deps),
		NewSearchCareerAdvice(deps),
		NewFollowupCareerAdvice(deps),
		NewHumanHandoff(deps),
		NewCheckRAGSuccess(deps),
		NewValidateCareerAdvice(deps),
		NewFindAdvisorContact(deps),
		NewGetUserQuery(),
	)
	return r
}

// Register adds actions, replacing any with the same name.
func (r *Registry) Register(actions ...Action) {
	for _, a := range actions {
		r.actions[a.Name()] = a
	}
}

// Get looks up an action by name.
func (r *Registry) Get(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names lists registered actions in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the requested action and collects its events and messages.
func (r *Registry) Execute(ctx context.Context, call tracker.ActionCall) (*tracker.ActionResponse, error) {
	action, ok := r.Get(call.NextAction)
	if !ok {
		return nil, &tracker.ActionNotFoundError{ActionName: call.NextAction}
	}

	senderID := call.SenderID
	if senderID == "" {
		senderID = call.Tracker.SenderID
	}
	ctx = contextx.WithSenderID(ctx, senderID)
	ctx = contextx.WithAction(ctx, call.NextAction)

	start := time.Now()
	r.logger.Info(ctx, "running action", log.KV("events", len(call.Tracker.Events)))

	d := tracker.NewDispatcher()
	events, err := action.Run(ctx, d, &call.Tracker, call.Domain)
	if err != nil {
		var rejection *tracker.RejectionError
		if errors.As(err, &rejection) {
			r.logger.Warn(ctx, "action rejected execution", log.Err(err))
			return nil, err
		}
		r.logger.Error(ctx, "action failed", log.Err(err))
		return nil, errors.Wrapf(err, "run %s", call.NextAction)
	}
	if events == nil {
		events = []tracker.Event{}
	}

	r.logger.Info(ctx, "action finished",
		log.KV("events", len(events)),
		log.KV("responses", len(d.Messages())),
		log.KV("took_ms", time.Since(start).Milliseconds()))
	return &tracker.ActionResponse{Events: events, Responses: d.Messages()}, nil
}
