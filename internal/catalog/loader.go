package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"physitutor/internal/model"
)

// LoadDir reads every *.json question definition under dir and registers it.
// Malformed files are logged and skipped so one bad definition cannot take
// down startup. Returns the number of questions loaded.
func (c *Catalog) LoadDir(dir string, log *zap.Logger) (int, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("scan questions dir: %w", err)
	}
	loaded := 0
	for _, path := range entries {
		q, err := LoadFile(path)
		if err != nil {
			log.Warn("skipping question file", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := c.Register(q); err != nil {
			log.Warn("skipping invalid question", zap.String("path", path), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// LoadFile reads and validates a single question definition file.
func LoadFile(path string) (*model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var q model.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if err := Validate(&q); err != nil {
		return nil, err
	}
	return &q, nil
}
