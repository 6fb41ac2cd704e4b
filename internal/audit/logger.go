package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"physitutor/internal/model"
)

// Logger is the append-only JSONL audit sink for dialogue interactions and
// session summaries. One line per record; the files are the analysis trail,
// not process logs.
type Logger struct {
	mu          sync.Mutex
	logPath     string
	summaryPath string
}

// New creates the log directory if needed and returns a logger writing
// dialogue_logs.jsonl and session_summaries.jsonl under dir.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	return &Logger{
		logPath:     filepath.Join(dir, "dialogue_logs.jsonl"),
		summaryPath: filepath.Join(dir, "session_summaries.jsonl"),
	}, nil
}

// LogInteraction appends one dialogue log entry.
func (l *Logger) LogInteraction(entry *model.DialogueLogEntry) error {
	return l.appendJSON(l.logPath, entry)
}

// LogSessionSummary appends one session summary.
func (l *Logger) LogSessionSummary(summary *model.SessionSummary) error {
	return l.appendJSON(l.summaryPath, summary)
}

func (l *Logger) appendJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// SessionLogs returns all dialogue entries recorded for one session, in
// submission order.
func (l *Logger) SessionLogs(sessionID string) ([]model.DialogueLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []model.DialogueLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.DialogueLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.SessionID == sessionID {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// RecentLogs returns up to limit most recent dialogue entries.
func (l *Logger) RecentLogs(limit int) ([]model.DialogueLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []model.DialogueLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.DialogueLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
