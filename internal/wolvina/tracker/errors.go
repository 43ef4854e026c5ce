package tracker

import "fmt"

// ActionNotFoundError is returned when no action is registered under a name.
type ActionNotFoundError struct {
	ActionName string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("No registered action found for name '%s'.", e.ActionName)
}

// RejectionError tells the dialogue manager that the action refused to run
// and another prediction should be made.
type RejectionError struct {
	ActionName string
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Custom action '%s' rejected execution.", e.ActionName)
	}
	return e.Message
}

// ErrorBody is the JSON payload returned alongside 400 and 404 responses.
type ErrorBody struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name"`
}
