package model

import "time"

// SessionPhase is the lifecycle phase of a tutoring session.
type SessionPhase string

const (
	PhaseActive        SessionPhase = "active"         // answering guided steps
	PhaseReasoning     SessionPhase = "reasoning"      // free-form explanation requested
	PhaseTransferReady SessionPhase = "transfer_ready" // transfer question available
	PhaseCompleted     SessionPhase = "completed"      // terminal
)

// SessionState is the mutable state of one student's attempt at one question.
// It is owned by the dialogue service and mutated only under the session
// store's per-session lock.
type SessionState struct {
	SessionID     string       `json:"sessionId"`
	QuestionID    string       `json:"questionId"`
	StudentID     string       `json:"studentId,omitempty"` // empty for anonymous sessions
	CurrentStepID int          `json:"currentStepId"`
	Phase         SessionPhase `json:"phase"`
	RetryCount    int          `json:"retryCount"`   // retries on the current step, reset on advance
	TotalRetries  int          `json:"totalRetries"` // cumulative across the session
	CorrectCount  int          `json:"correctCount"`
	TotalSteps    int          `json:"totalSteps"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Clone returns a copy safe to use outside the session lock.
func (s *SessionState) Clone() *SessionState {
	c := *s
	return &c
}

// SessionSummary is emitted exactly once, when a session reaches the
// completed phase.
type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	QuestionID   string    `json:"questionId"`
	TotalSteps   int       `json:"totalSteps"`
	CorrectCount int       `json:"correctCount"`
	Accuracy     float64   `json:"accuracy"`
	TotalRetries int       `json:"totalRetries"`
	CompletedAt  time.Time `json:"completedAt"`
}
