package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session already completed")
)

// InvalidChoiceError rejects a choice outside the current step's option set.
// It carries the permitted labels so the boundary can enumerate them.
type InvalidChoiceError struct {
	Choice string
	Valid  []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q, must be one of [%s]", e.Choice, strings.Join(e.Valid, ", "))
}

// ConsistencyError signals a session/catalog mismatch: the session points at a
// step or question that no longer resolves. This is a bug, not a user error.
type ConsistencyError struct {
	SessionID  string
	QuestionID string
	StepID     int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("session %s: step %d of question %q not found", e.SessionID, e.StepID, e.QuestionID)
}
