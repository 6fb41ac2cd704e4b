package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"physitutor/internal/model"
)

// StatsCache handles Redis counters for per-question answer statistics.
// Updates are best-effort; the dialogue flow never blocks on them.
type StatsCache interface {
	RecordAttempt(ctx context.Context, questionID string, stepID int, correct bool) error
	QuestionStats(ctx context.Context, questionID string) (*model.QuestionStats, error)
}

type statsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new stats cache.
func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{client: client}
}

func (c *statsCache) statsKey(questionID string) string {
	return fmt.Sprintf("qstats:%s", questionID)
}

// RecordAttempt increments the question-level and step-level counters.
func (c *statsCache) RecordAttempt(ctx context.Context, questionID string, stepID int, correct bool) error {
	key := c.statsKey(questionID)
	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, "attempts", 1)
	pipe.HIncrBy(ctx, key, fmt.Sprintf("s%d:attempts", stepID), 1)
	if correct {
		pipe.HIncrBy(ctx, key, "correct", 1)
		pipe.HIncrBy(ctx, key, fmt.Sprintf("s%d:correct", stepID), 1)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// QuestionStats reads back the counters for one question.
func (c *statsCache) QuestionStats(ctx context.Context, questionID string) (*model.QuestionStats, error) {
	fields, err := c.client.HGetAll(ctx, c.statsKey(questionID)).Result()
	if err != nil {
		return nil, err
	}

	stats := &model.QuestionStats{
		QuestionID: questionID,
		Steps:      make(map[int]model.StepStats),
	}
	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == "attempts":
			stats.TotalAttempts = n
		case field == "correct":
			stats.TotalCorrect = n
		case strings.HasPrefix(field, "s"):
			idStr, kind, ok := strings.Cut(field[1:], ":")
			if !ok {
				continue
			}
			stepID, err := strconv.Atoi(idStr)
			if err != nil {
				continue
			}
			entry := stats.Steps[stepID]
			if kind == "attempts" {
				entry.Attempts = n
			} else if kind == "correct" {
				entry.Correct = n
			}
			stats.Steps[stepID] = entry
		}
	}
	if stats.TotalAttempts > 0 {
		stats.Accuracy = float64(stats.TotalCorrect) / float64(stats.TotalAttempts)
	}
	return stats, nil
}
