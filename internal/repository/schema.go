package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	username   VARCHAR(50) UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
	id              VARCHAR(64) PRIMARY KEY,
	user_id         BIGINT REFERENCES users(id),
	question_id     VARCHAR(100) NOT NULL,
	phase           VARCHAR(20) NOT NULL,
	current_step_id INT NOT NULL,
	correct_count   INT NOT NULL DEFAULT 0,
	retry_count     INT NOT NULL DEFAULT 0,
	total_retries   INT NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS step_records (
	id               BIGSERIAL PRIMARY KEY,
	session_id       VARCHAR(64) NOT NULL REFERENCES sessions(id),
	step_id          INT NOT NULL,
	student_choice   VARCHAR(10) NOT NULL,
	is_correct       BOOLEAN NOT NULL,
	response_time_ms BIGINT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS mistakes (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT NOT NULL REFERENCES users(id),
	question_id    VARCHAR(100) NOT NULL,
	step_id        INT NOT NULL,
	wrong_choice   VARCHAR(10) NOT NULL,
	correct_choice VARCHAR(10) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS generated_questions (
	id                 VARCHAR(100) PRIMARY KEY,
	source_question_id VARCHAR(100) NOT NULL,
	content            JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitSchema creates the durability tables if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
