package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"physitutor/internal/cache"
	"physitutor/internal/catalog"
	"physitutor/internal/model"
	"physitutor/internal/store"
)

const (
	evaluationUnavailable = "The reasoning evaluation is unavailable right now. Please try again later."
	solutionUnavailable   = "The model solution is unavailable right now."
)

// DialogueService is the session orchestrator: it validates choices against
// catalog data, owns all session state transitions, and produces the response
// contracts consumed by the transport layer.
//
// The advisory collaborator is the only blocking dependency; it is never
// called while a session lock is held.
type DialogueService struct {
	catalog     *catalog.Catalog
	sessions    *store.SessionStore
	durable     DurableStore
	advisory    Advisory
	sink        AuditSink
	stats       cache.StatsCache
	broadcaster Broadcaster
	log         *zap.Logger

	escalationThreshold int
	promptVersion       string
	assetsDir           string
}

// NewDialogueService creates the orchestrator.
func NewDialogueService(
	cat *catalog.Catalog,
	sessions *store.SessionStore,
	durable DurableStore,
	advisory Advisory,
	sink AuditSink,
	stats cache.StatsCache,
	log *zap.Logger,
	escalationThreshold int,
	promptVersion string,
) *DialogueService {
	if escalationThreshold < 1 {
		escalationThreshold = 2
	}
	return &DialogueService{
		catalog:             cat,
		sessions:            sessions,
		durable:             durable,
		advisory:            advisory,
		sink:                sink,
		stats:               stats,
		log:                 log,
		escalationThreshold: escalationThreshold,
		promptVersion:       promptVersion,
	}
}

// SetBroadcaster sets the broadcaster for session watch events.
func (s *DialogueService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetAssetsDir sets the root used to resolve question image paths.
func (s *DialogueService) SetAssetsDir(dir string) {
	s.assetsDir = dir
}

// CreateSession starts a new tutoring session against a catalog question.
// The durable user is keyed on studentName: token ids rotate per login, the
// name is the stable identity the mistake ledger accumulates under.
func (s *DialogueService) CreateSession(ctx context.Context, questionID, studentID, studentName string) (*model.SessionState, error) {
	q, err := s.catalog.Lookup(questionID)
	if err != nil {
		return nil, err
	}

	session := &model.SessionState{
		SessionID:     "sess_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		QuestionID:    questionID,
		StudentID:     studentID,
		CurrentStepID: 1,
		Phase:         model.PhaseActive,
		TotalSteps:    len(q.GuidedSteps),
		CreatedAt:     time.Now(),
	}
	s.sessions.Put(session)

	// Durability is best-effort: a failed write never fails the session.
	var userID *int64
	if studentName != "" {
		uid, err := s.durable.GetOrCreateUser(ctx, studentName)
		if err != nil {
			s.log.Warn("get or create user failed", zap.String("student", studentName), zap.Error(err))
		} else {
			userID = &uid
		}
	}
	if err := s.durable.CreateSession(ctx, session.Clone(), userID); err != nil {
		s.log.Warn("persist session failed", zap.String("sessionId", session.SessionID), zap.Error(err))
	}

	return session.Clone(), nil
}

// GetCurrentStep returns the step the session must answer next, together
// with the question context and image. Context and image are always
// included, whatever the step position.
func (s *DialogueService) GetCurrentStep(ctx context.Context, sessionID string) (*model.StepView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if session.Phase == model.PhaseCompleted {
		return nil, model.ErrSessionCompleted
	}

	q, step, err := s.resolveStep(session)
	if err != nil {
		return nil, err
	}

	return &model.StepView{
		SessionID:       sessionID,
		QuestionID:      session.QuestionID,
		StepID:          step.StepID,
		StepType:        step.Type,
		Prompt:          step.Prompt,
		Options:         step.Options,
		Image:           q.Image,
		Context:         q.Context.Description,
		TotalSteps:      session.TotalSteps,
		IsTransferMode:  session.Phase == model.PhaseTransferReady,
		IsReasoningMode: session.Phase == model.PhaseReasoning,
	}, nil
}

// SubmitChoice processes one choice submission: validation, correctness,
// counters, conditional escalation, audit, and the phase transition on the
// final step. An invalid choice mutates nothing.
func (s *DialogueService) SubmitChoice(ctx context.Context, sessionID, rawChoice string) (*model.FeedbackResult, error) {
	start := time.Now()

	var (
		step           *model.QuestionStep
		stateCopy      *model.SessionState
		choice         string
		isCorrect      bool
		feedback       string
		nextAvailable  bool
		needEscalation bool
		retryAttempt   int
	)

	err := s.sessions.Update(sessionID, func(st *model.SessionState) error {
		if st.Phase == model.PhaseCompleted {
			return model.ErrSessionCompleted
		}

		_, cur, err := s.resolveStep(st)
		if err != nil {
			return err
		}
		step = cur

		choice = strings.ToUpper(strings.TrimSpace(rawChoice))
		valid := step.Labels()
		if !containsLabel(valid, choice) {
			return &model.InvalidChoiceError{Choice: choice, Valid: valid}
		}

		isCorrect = choice == step.Correct
		if isCorrect {
			feedback = step.Feedback.Correct
			st.CorrectCount++
			if st.CurrentStepID < st.TotalSteps {
				st.CurrentStepID++
				st.RetryCount = 0
				nextAvailable = true
			} else {
				// Last guided step solved: reasoning phase. The summary waits
				// until the reasoning/transfer branch resolves.
				st.Phase = model.PhaseReasoning
			}
		} else {
			feedback = step.Feedback.Incorrect
			st.RetryCount++
			st.TotalRetries++
			retryAttempt = st.RetryCount
			needEscalation = st.RetryCount >= s.escalationThreshold
		}

		stateCopy = st.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The advisory call runs outside the session lock; its failure falls back
	// silently to the authored feedback.
	aiFeedback := ""
	if needEscalation {
		enriched, err := s.advisory.EnrichFeedback(ctx, step, choice, isCorrect, feedback)
		if err != nil {
			s.log.Warn("feedback escalation failed", zap.String("sessionId", sessionID), zap.Error(err))
		} else {
			aiFeedback = enriched
		}
	}

	responseTime := time.Since(start).Milliseconds()

	entry := &model.DialogueLogEntry{
		Timestamp:      time.Now(),
		SessionID:      sessionID,
		QuestionID:     stateCopy.QuestionID,
		StepID:         step.StepID,
		StepType:       step.Type,
		StudentChoice:  choice,
		ExpectedChoice: step.Correct,
		Feedback:       feedback,
		AIFeedback:     aiFeedback,
		IsCorrect:      isCorrect,
		RetryAttempt:   retryAttempt,
		PromptVersion:  s.promptVersion,
		ResponseTimeMS: responseTime,
	}
	if err := s.sink.LogInteraction(entry); err != nil {
		s.log.Warn("audit log write failed", zap.String("sessionId", sessionID), zap.Error(err))
	}

	s.recordDurable(ctx, sessionID, stateCopy, step, choice, isCorrect, responseTime)

	if s.stats != nil {
		if err := s.stats.RecordAttempt(ctx, stateCopy.QuestionID, step.StepID, isCorrect); err != nil {
			s.log.Debug("stats update failed", zap.Error(err))
		}
	}

	result := &model.FeedbackResult{
		SessionID:          sessionID,
		StepID:             step.StepID,
		IsCorrect:          isCorrect,
		Feedback:           feedback,
		AIEnhancedFeedback: aiFeedback,
		NextStepAvailable:  nextAvailable,
		EnterReasoningMode: stateCopy.Phase == model.PhaseReasoning,
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, "step_result", result)
	}
	return result, nil
}

// recordDurable writes the step record, the mistake ledger entry for
// identified students, and the session state. All best-effort.
func (s *DialogueService) recordDurable(ctx context.Context, sessionID string, state *model.SessionState, step *model.QuestionStep, choice string, isCorrect bool, responseTime int64) {
	if err := s.durable.CreateStepRecord(ctx, &model.StepRecord{
		SessionID:      sessionID,
		StepID:         step.StepID,
		Choice:         choice,
		IsCorrect:      isCorrect,
		ResponseTimeMS: responseTime,
	}); err != nil {
		s.log.Warn("persist step record failed", zap.String("sessionId", sessionID), zap.Error(err))
	}

	if !isCorrect {
		userID, err := s.durable.SessionUser(ctx, sessionID)
		if err != nil {
			s.log.Warn("resolve session user failed", zap.String("sessionId", sessionID), zap.Error(err))
		} else if userID != nil {
			// Anonymous sessions are not tracked in the mistake ledger.
			if err := s.durable.CreateMistake(ctx, &model.Mistake{
				UserID:        *userID,
				QuestionID:    state.QuestionID,
				StepID:        step.StepID,
				WrongChoice:   choice,
				CorrectChoice: step.Correct,
			}); err != nil {
				s.log.Warn("persist mistake failed", zap.String("sessionId", sessionID), zap.Error(err))
			}
		}
	}

	if err := s.durable.UpdateSession(ctx, state); err != nil {
		s.log.Warn("persist session failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

// SubmitReasoning evaluates the student's free-form explanation via the
// advisory collaborator and resolves the reasoning phase: transfer-ready
// when the question has a successor, completed otherwise. The collaborator's
// response never influences the transition.
func (s *DialogueService) SubmitReasoning(ctx context.Context, sessionID, text, image string) (*model.ReasoningResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	q, err := s.catalog.Lookup(session.QuestionID)
	if err != nil {
		return nil, &model.ConsistencyError{SessionID: sessionID, QuestionID: session.QuestionID}
	}

	// Blocking advisory call, no session lock held.
	eval, evalErr := s.advisory.EvaluateReasoning(ctx, q, text, image)
	if evalErr != nil {
		s.log.Warn("reasoning evaluation failed", zap.String("sessionId", sessionID), zap.Error(evalErr))
		eval = &model.ReasoningEvaluation{
			Evaluation:       evaluationUnavailable,
			StandardSolution: solutionUnavailable,
		}
	}

	var (
		stateCopy *model.SessionState
		summary   *model.SessionSummary
	)
	err = s.sessions.Update(sessionID, func(st *model.SessionState) error {
		if st.Phase == model.PhaseReasoning {
			if q.NextSimilarQuestionID != "" {
				st.Phase = model.PhaseTransferReady
			} else {
				st.Phase = model.PhaseCompleted
				summary = s.summarize(st)
			}
		}
		stateCopy = st.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.durable.UpdateSession(ctx, stateCopy); err != nil {
		s.log.Warn("persist session failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
	s.emitSummary(sessionID, summary)

	return &model.ReasoningResult{
		SessionID:        sessionID,
		Evaluation:       eval.Evaluation,
		StandardSolution: eval.StandardSolution,
		IsTransferReady:  true,
	}, nil
}

// StartTransfer is a pure read: it reports the successor question for a
// transfer-ready session and performs no session mutation. Any other phase
// gets an unavailable result, idempotently.
func (s *DialogueService) StartTransfer(ctx context.Context, sessionID string) (*model.TransferStart, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok || session.Phase != model.PhaseTransferReady {
		return &model.TransferStart{Available: false}, nil
	}

	q, err := s.catalog.Lookup(session.QuestionID)
	if err != nil {
		return &model.TransferStart{Available: false}, nil
	}

	nextID := q.NextSimilarQuestionID
	if nextID == "" {
		return &model.TransferStart{Available: false}, nil
	}
	if _, err := s.catalog.Lookup(nextID); err != nil {
		return &model.TransferStart{Available: false}, nil
	}
	return &model.TransferStart{Available: true, NextQuestionID: nextID}, nil
}

// GenerateTransferQuestion asks the advisory collaborator for a similar
// question, validates the payload, and registers it under a new id. Returns
// the empty string when the session phase does not allow it or generation
// failed; the caller starts the new session separately.
func (s *DialogueService) GenerateTransferQuestion(ctx context.Context, sessionID string) (string, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", model.ErrSessionNotFound
	}
	if session.Phase != model.PhaseTransferReady && session.Phase != model.PhaseCompleted {
		return "", nil
	}

	q, err := s.catalog.Lookup(session.QuestionID)
	if err != nil {
		return "", &model.ConsistencyError{SessionID: sessionID, QuestionID: session.QuestionID}
	}

	newID := "transfer_" + sessionID

	// A previous call for this session already paid for the generation;
	// reload the persisted payload instead of calling out again.
	if cached, _, err := s.durable.GetGeneratedQuestion(ctx, newID); err == nil && len(cached) > 0 {
		if generated, err := catalog.ParseGenerated(cached, newID); err == nil {
			if err := s.catalog.Register(generated); err == nil {
				return newID, nil
			}
		}
	}

	image, mimeType := s.readQuestionImage(q)
	raw, err := s.advisory.GenerateSimilarQuestion(ctx, q, image, mimeType)
	if err != nil {
		s.log.Warn("transfer question generation failed", zap.String("sessionId", sessionID), zap.Error(err))
		return "", nil
	}

	generated, err := catalog.ParseGenerated(raw, newID)
	if err != nil {
		s.log.Warn("generated question rejected", zap.String("sessionId", sessionID), zap.Error(err))
		return "", nil
	}
	if err := s.catalog.Register(generated); err != nil {
		s.log.Warn("generated question registration failed", zap.String("sessionId", sessionID), zap.Error(err))
		return "", nil
	}

	if err := s.durable.SaveGeneratedQuestion(ctx, newID, q.ID, raw); err != nil {
		s.log.Warn("persist generated question failed", zap.String("questionId", newID), zap.Error(err))
	}
	return newID, nil
}

func (s *DialogueService) readQuestionImage(q *model.Question) ([]byte, string) {
	if q.Image == "" || s.assetsDir == "" {
		return nil, ""
	}
	path := filepath.Join(s.assetsDir, strings.TrimPrefix(q.Image, "/"))
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Debug("question image unreadable", zap.String("path", path), zap.Error(err))
		return nil, ""
	}
	mimeType := "image/png"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return data, mimeType
}

// EndSession terminates a session and removes it from the live store. A
// session that has not reached the completed phase is force-completed and
// summarized first. A second call reports not found.
func (s *DialogueService) EndSession(ctx context.Context, sessionID string) (*model.SessionState, error) {
	var (
		stateCopy *model.SessionState
		summary   *model.SessionSummary
	)
	err := s.sessions.Update(sessionID, func(st *model.SessionState) error {
		if st.Phase != model.PhaseCompleted {
			st.Phase = model.PhaseCompleted
			summary = s.summarize(st)
		}
		stateCopy = st.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.durable.UpdateSession(ctx, stateCopy); err != nil {
		s.log.Warn("persist session failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
	s.emitSummary(sessionID, summary)
	s.sessions.Delete(sessionID)

	return stateCopy, nil
}

// AnalyzeImage turns a photographed physics problem into a registered
// catalog question via the advisory collaborator. The payload passes the
// same validation gate as transfer generation. The uploaded image is kept
// under the assets dir so the question can reference it.
func (s *DialogueService) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	raw, err := s.advisory.AnalyzePhysicsImage(ctx, image, mimeType)
	if err != nil {
		return "", fmt.Errorf("image analysis failed: %w", err)
	}

	newID := "photo_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	q, err := catalog.ParseGenerated(raw, newID)
	if err != nil {
		return "", fmt.Errorf("analyzed question rejected: %w", err)
	}
	if q.Topic == "" {
		q.Topic = "photo_question"
	}
	if q.Difficulty == "" {
		q.Difficulty = "unknown"
	}
	q.Image = s.storeUpload(newID, image, mimeType)

	if err := s.catalog.Register(q); err != nil {
		return "", fmt.Errorf("analyzed question rejected: %w", err)
	}

	content, err := json.Marshal(q)
	if err == nil {
		if err := s.durable.SaveGeneratedQuestion(ctx, newID, "user_upload", content); err != nil {
			s.log.Warn("persist analyzed question failed", zap.String("questionId", newID), zap.Error(err))
		}
	}
	return newID, nil
}

// storeUpload writes the uploaded image next to the authored question assets
// and returns its relative path, empty on any failure.
func (s *DialogueService) storeUpload(id string, image []byte, mimeType string) string {
	if s.assetsDir == "" {
		return ""
	}
	ext := ".png"
	if mimeType == "image/jpeg" {
		ext = ".jpg"
	}
	dir := filepath.Join(s.assetsDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn("create uploads dir failed", zap.Error(err))
		return ""
	}
	name := id + ext
	if err := os.WriteFile(filepath.Join(dir, name), image, 0o644); err != nil {
		s.log.Warn("store upload failed", zap.String("questionId", id), zap.Error(err))
		return ""
	}
	return filepath.Join("uploads", name)
}

// SessionHistory returns the audit trail of a session. History survives
// session removal.
func (s *DialogueService) SessionHistory(ctx context.Context, sessionID string) ([]model.DialogueLogEntry, error) {
	return s.sink.SessionLogs(sessionID)
}

// RecentLogs returns up to limit most recent dialogue log entries across all
// sessions. A non-positive limit gets the default of 20.
func (s *DialogueService) RecentLogs(ctx context.Context, limit int) ([]model.DialogueLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sink.RecentLogs(limit)
}

// StudentMistakes returns the durable mistake ledger for a named student.
func (s *DialogueService) StudentMistakes(ctx context.Context, studentName string) ([]model.Mistake, error) {
	userID, err := s.durable.GetOrCreateUser(ctx, studentName)
	if err != nil {
		return nil, fmt.Errorf("resolve student: %w", err)
	}
	return s.durable.ListMistakes(ctx, userID)
}

// ListQuestions returns the catalog's discovery listing.
func (s *DialogueService) ListQuestions() []model.QuestionInfo {
	return s.catalog.List()
}

// QuestionStats returns aggregate answer counters for one catalog question.
func (s *DialogueService) QuestionStats(ctx context.Context, questionID string) (*model.QuestionStats, error) {
	if _, err := s.catalog.Lookup(questionID); err != nil {
		return nil, err
	}
	if s.stats == nil {
		return &model.QuestionStats{QuestionID: questionID, Steps: map[int]model.StepStats{}}, nil
	}
	return s.stats.QuestionStats(ctx, questionID)
}

func (s *DialogueService) resolveStep(st *model.SessionState) (*model.Question, *model.QuestionStep, error) {
	q, err := s.catalog.Lookup(st.QuestionID)
	if err != nil {
		return nil, nil, &model.ConsistencyError{SessionID: st.SessionID, QuestionID: st.QuestionID, StepID: st.CurrentStepID}
	}
	step := q.Step(st.CurrentStepID)
	if step == nil {
		// Step ids are contiguous from 1, so this is a bug, not a user error.
		return nil, nil, &model.ConsistencyError{SessionID: st.SessionID, QuestionID: st.QuestionID, StepID: st.CurrentStepID}
	}
	return q, step, nil
}

func (s *DialogueService) summarize(st *model.SessionState) *model.SessionSummary {
	accuracy := 0.0
	if st.TotalSteps > 0 {
		accuracy = float64(st.CorrectCount) / float64(st.TotalSteps)
	}
	return &model.SessionSummary{
		SessionID:    st.SessionID,
		QuestionID:   st.QuestionID,
		TotalSteps:   st.TotalSteps,
		CorrectCount: st.CorrectCount,
		Accuracy:     accuracy,
		TotalRetries: st.TotalRetries,
		CompletedAt:  time.Now(),
	}
}

func (s *DialogueService) emitSummary(sessionID string, summary *model.SessionSummary) {
	if summary == nil {
		return
	}
	if err := s.sink.LogSessionSummary(summary); err != nil {
		s.log.Warn("summary log write failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(sessionID, "session_completed", summary)
	}
}

func containsLabel(labels []string, choice string) bool {
	for _, l := range labels {
		if l == choice {
			return true
		}
	}
	return false
}
