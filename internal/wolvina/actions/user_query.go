package actions

import (
	"context"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// GetUserQuery stores the latest user message for later lookups.
type GetUserQuery struct{}

func NewGetUserQuery() *GetUserQuery { return &GetUserQuery{} }

func (a *GetUserQuery) Name() string { return "action_get_user_query" }

func (a *GetUserQuery) Run(_ context.Context, _ *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	return []tracker.Event{tracker.SlotSet(SlotUserQuery, t.LatestText())}, nil
}
