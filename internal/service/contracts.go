package service

import (
	"context"
	"time"

	"physitutor/internal/model"
)

// DurableStore is the relational write-through store. All calls are side
// effects of in-memory transitions; failures are logged, never fatal to the
// in-memory operation.
type DurableStore interface {
	GetOrCreateUser(ctx context.Context, username string) (int64, error)
	CreateSession(ctx context.Context, state *model.SessionState, userID *int64) error
	UpdateSession(ctx context.Context, state *model.SessionState) error
	SessionUser(ctx context.Context, sessionID string) (*int64, error)
	CreateStepRecord(ctx context.Context, rec *model.StepRecord) error
	CreateMistake(ctx context.Context, m *model.Mistake) error
	ListMistakes(ctx context.Context, userID int64) ([]model.Mistake, error)
	SaveGeneratedQuestion(ctx context.Context, id, sourceID string, content []byte) error
	GetGeneratedQuestion(ctx context.Context, id string) ([]byte, time.Time, error)
}

// Advisory is the external AI collaborator. Every call is an unreliable
// network operation: callers must treat errors as recoverable and fall back
// to deterministic behavior.
type Advisory interface {
	// EnrichFeedback produces guidance beyond the authored feedback text.
	EnrichFeedback(ctx context.Context, step *model.QuestionStep, choice string, correct bool, baseFeedback string) (string, error)

	// EvaluateReasoning judges a student's free-form explanation and returns
	// an evaluation narrative plus a model solution.
	EvaluateReasoning(ctx context.Context, q *model.Question, text, image string) (*model.ReasoningEvaluation, error)

	// GenerateSimilarQuestion produces the raw JSON of a question with the
	// same structure but a different scenario. The payload is untrusted and
	// must pass the catalog validation gate before use.
	GenerateSimilarQuestion(ctx context.Context, q *model.Question, image []byte, mimeType string) ([]byte, error)

	// AnalyzePhysicsImage turns a photographed physics problem into the raw
	// JSON of a guided question. Same trust rules as GenerateSimilarQuestion.
	AnalyzePhysicsImage(ctx context.Context, image []byte, mimeType string) ([]byte, error)
}

// AuditSink accepts the append-only dialogue trail. Write failures must not
// block the response to the student.
type AuditSink interface {
	LogInteraction(entry *model.DialogueLogEntry) error
	LogSessionSummary(summary *model.SessionSummary) error
	SessionLogs(sessionID string) ([]model.DialogueLogEntry, error)
	RecentLogs(limit int) ([]model.DialogueLogEntry, error)
}

// Broadcaster pushes session progress events to watchers (avoids import
// cycle with the ws package).
type Broadcaster interface {
	BroadcastToSession(sessionID string, event string, payload interface{})
}
