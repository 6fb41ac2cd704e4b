package audit

import (
	"testing"
	"time"

	"physitutor/internal/model"
)

func TestSessionLogsFilterAndOrder(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	entries := []*model.DialogueLogEntry{
		{SessionID: "s1", StepID: 1, StudentChoice: "A", Timestamp: time.Now()},
		{SessionID: "s2", StepID: 1, StudentChoice: "B", Timestamp: time.Now()},
		{SessionID: "s1", StepID: 1, StudentChoice: "C", Timestamp: time.Now()},
		{SessionID: "s1", StepID: 2, StudentChoice: "B", Timestamp: time.Now()},
	}
	for _, e := range entries {
		if err := l.LogInteraction(e); err != nil {
			t.Fatalf("LogInteraction: %v", err)
		}
	}

	got, err := l.SessionLogs("s1")
	if err != nil {
		t.Fatalf("SessionLogs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries for s1, got %d", len(got))
	}
	wantChoices := []string{"A", "C", "B"}
	for i, want := range wantChoices {
		if got[i].StudentChoice != want {
			t.Fatalf("entry %d choice = %q, want %q", i, got[i].StudentChoice, want)
		}
	}
}

func TestSessionLogsEmptyWithoutFile(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := l.SessionLogs("s1")
	if err != nil {
		t.Fatalf("SessionLogs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

func TestRecentLogsLimit(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := l.LogInteraction(&model.DialogueLogEntry{SessionID: "s1", StepID: i}); err != nil {
			t.Fatalf("LogInteraction: %v", err)
		}
	}

	got, err := l.RecentLogs(2)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].StepID != 4 || got[1].StepID != 5 {
		t.Fatalf("expected the most recent entries, got steps %d, %d", got[0].StepID, got[1].StepID)
	}
}

func TestLogSessionSummary(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary := &model.SessionSummary{
		SessionID:    "s1",
		QuestionID:   "q1",
		TotalSteps:   3,
		CorrectCount: 2,
		Accuracy:     2.0 / 3.0,
		CompletedAt:  time.Now(),
	}
	if err := l.LogSessionSummary(summary); err != nil {
		t.Fatalf("LogSessionSummary: %v", err)
	}
}
