package model

import "time"

// StepView is the current-step response contract. Question context and image
// are always included, regardless of step position.
type StepView struct {
	SessionID       string   `json:"sessionId"`
	QuestionID      string   `json:"questionId"`
	StepID          int      `json:"stepId"`
	StepType        string   `json:"stepType"`
	Prompt          string   `json:"prompt"`
	Options         []string `json:"options"`
	Image           string   `json:"image,omitempty"`
	Context         string   `json:"context,omitempty"`
	TotalSteps      int      `json:"totalSteps"`
	IsTransferMode  bool     `json:"isTransferMode"`
	IsReasoningMode bool     `json:"isReasoningMode"`
}

// SubmitChoiceRequest is the request body for a choice submission.
type SubmitChoiceRequest struct {
	Choice string `json:"choice"`
}

// FeedbackResult is returned after a choice submission.
type FeedbackResult struct {
	SessionID          string `json:"sessionId"`
	StepID             int    `json:"stepId"`
	IsCorrect          bool   `json:"isCorrect"`
	Feedback           string `json:"feedback"`
	AIEnhancedFeedback string `json:"aiEnhancedFeedback,omitempty"`
	NextStepAvailable  bool   `json:"nextStepAvailable"`
	IsCompleted        bool   `json:"isCompleted"`
	EnterReasoningMode bool   `json:"enterReasoningMode"`
	// EnterTransferMode stays false on the choice path: transfer readiness is
	// decided when the reasoning phase resolves, never by a choice.
	EnterTransferMode bool `json:"enterTransferMode"`
}

// SubmitReasoningRequest is the request body for a reasoning submission.
type SubmitReasoningRequest struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"` // optional base64 image or URL
}

// ReasoningEvaluation is the advisory collaborator's verdict on free-form
// reasoning, passed through to the caller unmodified.
type ReasoningEvaluation struct {
	Evaluation       string `json:"evaluation"`
	StandardSolution string `json:"standard_solution"`
}

// ReasoningResult is returned after a reasoning submission.
type ReasoningResult struct {
	SessionID        string `json:"sessionId"`
	Evaluation       string `json:"evaluation"`
	StandardSolution string `json:"standardSolution"`
	IsTransferReady  bool   `json:"isTransferReady"`
}

// TransferStart is the outcome of a transfer request. Sessions outside the
// transfer-ready phase get Available=false rather than an error.
type TransferStart struct {
	Available      bool   `json:"available"`
	NextQuestionID string `json:"nextQuestionId,omitempty"`
}

// DialogueLogEntry is the append-only audit record of one choice submission.
type DialogueLogEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"sessionId"`
	QuestionID     string    `json:"questionId"`
	StepID         int       `json:"stepId"`
	StepType       string    `json:"stepType"`
	StudentChoice  string    `json:"studentChoice"`
	ExpectedChoice string    `json:"expectedChoice"`
	Feedback       string    `json:"feedback"`
	AIFeedback     string    `json:"aiFeedback,omitempty"`
	IsCorrect      bool      `json:"isCorrect"`
	RetryAttempt   int       `json:"retryAttempt"`
	PromptVersion  string    `json:"promptVersion"`
	ResponseTimeMS int64     `json:"responseTimeMs"`
}

// StepRecord is the durable per-submission record.
type StepRecord struct {
	SessionID      string
	StepID         int
	Choice         string
	IsCorrect      bool
	ResponseTimeMS int64
}

// Mistake is one wrong answer in the mistake ledger, keyed by an identified
// student.
type Mistake struct {
	UserID        int64
	QuestionID    string
	StepID        int
	WrongChoice   string
	CorrectChoice string
}

// StepStats are aggregate counters for one step of a question.
type StepStats struct {
	Attempts int64 `json:"attempts"`
	Correct  int64 `json:"correct"`
}

// QuestionStats are aggregate counters for a question across all sessions.
type QuestionStats struct {
	QuestionID    string            `json:"questionId"`
	TotalAttempts int64             `json:"totalAttempts"`
	TotalCorrect  int64             `json:"totalCorrect"`
	Accuracy      float64           `json:"accuracy"`
	Steps         map[int]StepStats `json:"steps"`
}
