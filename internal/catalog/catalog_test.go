package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"physitutor/internal/model"
)

func validQuestion(id string) *model.Question {
	return &model.Question{
		ID:    id,
		Topic: "kinematics",
		GuidedSteps: []model.QuestionStep{
			{
				StepID:  1,
				Type:    "concept_recognition",
				Prompt:  "Which direction is the net force?",
				Options: []string{"A) Up", "B) Down"},
				Correct: "B",
				Feedback: model.StepFeedback{
					Correct:   "Right.",
					Incorrect: "Think about gravity.",
				},
			},
			{
				StepID:  2,
				Type:    "calculation",
				Prompt:  "What is the acceleration?",
				Options: []string{"A) 10 m/s^2", "B) 5 m/s^2", "C) 0"},
				Correct: "A",
				Feedback: model.StepFeedback{
					Correct:   "Correct.",
					Incorrect: "Apply Newton's second law.",
				},
			},
		},
	}
}

func TestValidateAcceptsWellFormedQuestion(t *testing.T) {
	if err := Validate(validQuestion("q1")); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}
}

func TestValidateRejectsBadQuestions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *model.Question)
	}{
		{"empty id", func(q *model.Question) { q.ID = "" }},
		{"no steps", func(q *model.Question) { q.GuidedSteps = nil }},
		{"non-contiguous step ids", func(q *model.Question) { q.GuidedSteps[1].StepID = 5 }},
		{"step ids not starting at 1", func(q *model.Question) {
			q.GuidedSteps[0].StepID = 2
			q.GuidedSteps[1].StepID = 3
		}},
		{"no options", func(q *model.Question) { q.GuidedSteps[0].Options = nil }},
		{"unlabeled option", func(q *model.Question) { q.GuidedSteps[0].Options = []string{"A) Up", "  "} }},
		{"correct matches nothing", func(q *model.Question) { q.GuidedSteps[0].Correct = "Z" }},
		{"correct matches twice", func(q *model.Question) {
			q.GuidedSteps[0].Options = []string{"A) Up", "A) Also up"}
			q.GuidedSteps[0].Correct = "A"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion("q1")
			tt.mutate(q)
			if err := Validate(q); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLookupUnknownQuestion(t *testing.T) {
	c := New()
	if _, err := c.Lookup("missing"); !errors.Is(err, model.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestRegisterAndListSorted(t *testing.T) {
	c := New()
	for _, id := range []string{"q3", "q1", "q2"} {
		if err := c.Register(validQuestion(id)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	list := c.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(list))
	}
	for i, want := range []string{"q1", "q2", "q3"} {
		if list[i].ID != want {
			t.Fatalf("list[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	c := New()
	q := validQuestion("q1")
	q.GuidedSteps = nil
	if err := c.Register(q); err == nil {
		t.Fatalf("expected register to fail validation")
	}
	if c.Len() != 0 {
		t.Fatalf("invalid question must not enter the catalog")
	}
}

func TestParseGeneratedNormalizes(t *testing.T) {
	raw := []byte(`{
		"topic": "dynamics",
		"next_similar_question_id": "should_be_cleared",
		"guided_steps": [
			{
				"type": "concept_recognition",
				"prompt": "Pick one",
				"options": [" A) Yes ", "B) No"],
				"correct": " b ",
				"feedback": {"correct": "ok", "incorrect": "no"}
			}
		]
	}`)

	q, err := ParseGenerated(raw, "transfer_abc")
	if err != nil {
		t.Fatalf("ParseGenerated: %v", err)
	}
	if q.ID != "transfer_abc" {
		t.Fatalf("id = %q", q.ID)
	}
	if q.NextSimilarQuestionID != "" {
		t.Fatalf("generated question must not chain further")
	}
	if q.GuidedSteps[0].StepID != 1 {
		t.Fatalf("missing step id must default to position, got %d", q.GuidedSteps[0].StepID)
	}
	if q.GuidedSteps[0].Correct != "B" {
		t.Fatalf("correct label not normalized: %q", q.GuidedSteps[0].Correct)
	}
}

func TestParseGeneratedRejectsGarbage(t *testing.T) {
	if _, err := ParseGenerated([]byte("not json"), "x"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ParseGenerated([]byte(`{"guided_steps":[]}`), "x"); err == nil {
		t.Fatalf("expected validation error for empty steps")
	}
}

func TestLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()

	good := `{
		"id": "good_q",
		"guided_steps": [
			{"step_id": 1, "prompt": "p", "options": ["A) x", "B) y"], "correct": "A",
			 "feedback": {"correct": "c", "incorrect": "i"}}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "good.json"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New()
	loaded, err := c.LoadDir(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected 1 loaded question, got %d", loaded)
	}
	if _, err := c.Lookup("good_q"); err != nil {
		t.Fatalf("good question missing: %v", err)
	}
}
