package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"physitutor/internal/model"
)

// Store is the relational durable store behind the dialogue service. The
// orchestrator writes through to it as a side effect of in-memory
// transitions; its failures are best-effort from the orchestrator's view.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new durable store on top of a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetOrCreateUser resolves a username to a user id, creating the row on
// first sight.
func (s *Store) GetOrCreateUser(ctx context.Context, username string) (int64, error) {
	const q = `
		INSERT INTO users (username)
		VALUES ($1)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, q, username).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create user: %w", err)
	}
	return id, nil
}

// CreateSession inserts the initial durable row for a session. userID is nil
// for anonymous sessions.
func (s *Store) CreateSession(ctx context.Context, state *model.SessionState, userID *int64) error {
	const q = `
		INSERT INTO sessions (id, user_id, question_id, phase, current_step_id, correct_count, retry_count, total_retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, q,
		state.SessionID, userID, state.QuestionID, string(state.Phase),
		state.CurrentStepID, state.CorrectCount, state.RetryCount, state.TotalRetries, state.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateSession writes the current in-memory state through to the database.
func (s *Store) UpdateSession(ctx context.Context, state *model.SessionState) error {
	const q = `
		UPDATE sessions
		SET phase = $2, current_step_id = $3, correct_count = $4, retry_count = $5, total_retries = $6,
		    completed_at = CASE WHEN $2 = 'completed' AND completed_at IS NULL THEN now() ELSE completed_at END
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, q,
		state.SessionID, string(state.Phase), state.CurrentStepID,
		state.CorrectCount, state.RetryCount, state.TotalRetries)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// SessionUser returns the user id associated with a session, or nil for
// anonymous sessions.
func (s *Store) SessionUser(ctx context.Context, sessionID string) (*int64, error) {
	const q = `SELECT user_id FROM sessions WHERE id = $1`
	var userID *int64
	err := s.pool.QueryRow(ctx, q, sessionID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session user: %w", err)
	}
	return userID, nil
}

// CreateStepRecord appends one submission record.
func (s *Store) CreateStepRecord(ctx context.Context, rec *model.StepRecord) error {
	const q = `
		INSERT INTO step_records (session_id, step_id, student_choice, is_correct, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, q, rec.SessionID, rec.StepID, rec.Choice, rec.IsCorrect, rec.ResponseTimeMS)
	if err != nil {
		return fmt.Errorf("create step record: %w", err)
	}
	return nil
}

// CreateMistake appends one entry to the mistake ledger.
func (s *Store) CreateMistake(ctx context.Context, m *model.Mistake) error {
	const q = `
		INSERT INTO mistakes (user_id, question_id, step_id, wrong_choice, correct_choice)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, q, m.UserID, m.QuestionID, m.StepID, m.WrongChoice, m.CorrectChoice)
	if err != nil {
		return fmt.Errorf("create mistake: %w", err)
	}
	return nil
}

// ListMistakes returns all mistake entries for a user, newest first.
func (s *Store) ListMistakes(ctx context.Context, userID int64) ([]model.Mistake, error) {
	const q = `
		SELECT question_id, step_id, wrong_choice, correct_choice
		FROM mistakes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list mistakes: %w", err)
	}
	defer rows.Close()

	var mistakes []model.Mistake
	for rows.Next() {
		m := model.Mistake{UserID: userID}
		if err := rows.Scan(&m.QuestionID, &m.StepID, &m.WrongChoice, &m.CorrectChoice); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		mistakes = append(mistakes, m)
	}
	return mistakes, rows.Err()
}

// SaveGeneratedQuestion stores the raw JSON of an AI-generated question so it
// survives process restarts.
func (s *Store) SaveGeneratedQuestion(ctx context.Context, id, sourceID string, content []byte) error {
	const q = `
		INSERT INTO generated_questions (id, source_question_id, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, created_at = now()
	`
	_, err := s.pool.Exec(ctx, q, id, sourceID, content)
	if err != nil {
		return fmt.Errorf("save generated question: %w", err)
	}
	return nil
}

// GetGeneratedQuestion loads a stored generated question's raw JSON.
func (s *Store) GetGeneratedQuestion(ctx context.Context, id string) ([]byte, time.Time, error) {
	const q = `SELECT content, created_at FROM generated_questions WHERE id = $1`
	var content []byte
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, q, id).Scan(&content, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, model.ErrQuestionNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get generated question: %w", err)
	}
	return content, createdAt, nil
}
