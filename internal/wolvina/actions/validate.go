package actions

import (
	"context"
	"sort"
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/log"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

type slotValidator func(value any) any

// skipTo returns a validator that replaces the value with replacement when
// the user declined to answer.
func skipTo(replacement any, phrases ...string) slotValidator {
	return func(value any) any {
		s, ok := value.(string)
		if !ok {
			return value
		}
		if containsAny(strings.ToLower(s), phrases) {
			return replacement
		}
		return value
	}
}

// ValidateCareerAdvice normalises optional profile answers collected by
// the career advice form.
type ValidateCareerAdvice struct {
	logger     *log.Logger
	validators map[string]slotValidator
}

func NewValidateCareerAdvice(deps Deps) *ValidateCareerAdvice {
	deps = deps.withDefaults()
	return &ValidateCareerAdvice{
		logger: deps.Logger,
		validators: map[string]slotValidator{
			SlotStudentName:   skipTo("Student", "skip", "prefer not", "don't want", "no thanks", "pass"),
			SlotYearOfStudy:   skipTo("not_specified", "skip", "prefer not", "don't know", "not sure"),
			SlotGPA:           skipTo("not_provided", "skip", "prefer not", "private", "don't want", "pass"),
			SlotHasInternship: skipTo(nil, "skip", "prefer not", "pass"),
			SlotVisaStatus:    skipTo("not_specified", "skip", "prefer not", "not relevant"),
		},
	}
}

func (a *ValidateCareerAdvice) Name() string { return "validate_career_advice" }

func (a *ValidateCareerAdvice) Run(ctx context.Context, _ *tracker.Dispatcher, t *tracker.Tracker, _ tracker.Domain) ([]tracker.Event, error) {
	slots := t.SlotsToValidate()
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	events := make([]tracker.Event, 0, len(names))
	for _, name := range names {
		value := slots[name]
		if validate, ok := a.validators[name]; ok {
			value = validate(value)
		}
		events = append(events, tracker.SlotSet(name, value))
	}
	a.logger.Debug(ctx, "validated form slots", log.KV("slots", names))
	return events, nil
}
