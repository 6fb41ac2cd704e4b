package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"physitutor/internal/config"
	"physitutor/internal/model"
)

func geminiBody(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func testEvaluator(serverURL string) *EvaluatorService {
	cfg := &config.AIConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Models: config.GeminiModels{
			Feedback:  "test-model",
			Reasoning: "test-model",
			Transfer:  "test-model",
			Analyze:   "test-model",
		},
		TimeoutMS:  2000,
		MaxRetries: 2,
	}
	return NewEvaluatorService(cfg, zap.NewNop())
}

func sampleStep() *model.QuestionStep {
	return &model.QuestionStep{
		StepID:  1,
		Prompt:  "Which way does friction act?",
		Options: []string{"A) Up", "B) Down"},
		Correct: "A",
		Feedback: model.StepFeedback{
			Correct:   "Right.",
			Incorrect: "Friction opposes sliding.",
		},
	}
}

func TestEnrichFeedbackParsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody(`{"feedback": "Consider which way the block would slide without friction."}`)))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	got, err := e.EnrichFeedback(context.Background(), sampleStep(), "B", false, "Friction opposes sliding.")
	if err != nil {
		t.Fatalf("EnrichFeedback: %v", err)
	}
	if got != "Consider which way the block would slide without friction." {
		t.Fatalf("unexpected feedback: %q", got)
	}
}

func TestEnrichFeedbackAcceptsProse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody("Just plain prose guidance.")))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	got, err := e.EnrichFeedback(context.Background(), sampleStep(), "B", false, "base")
	if err != nil {
		t.Fatalf("EnrichFeedback: %v", err)
	}
	if got != "Just plain prose guidance." {
		t.Fatalf("prose fallback failed: %q", got)
	}
}

func TestCallRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(geminiBody(`{"feedback": "ok"}`)))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	got, err := e.EnrichFeedback(context.Background(), sampleStep(), "B", false, "base")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected feedback: %q", got)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestCallDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	if _, err := e.EnrichFeedback(context.Background(), sampleStep(), "B", false, "base"); err == nil {
		t.Fatal("expected error on 400")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("400 must not be retried, got %d calls", calls)
	}
}

func TestEvaluateReasoningKeepsNarrativeOnBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody("The reasoning is mostly sound but skips the friction bound.")))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	q := tutoringQuestion("q1", "")
	got, err := e.EvaluateReasoning(context.Background(), q, "my reasoning", "")
	if err != nil {
		t.Fatalf("EvaluateReasoning: %v", err)
	}
	if got.Evaluation == "" {
		t.Fatal("narrative response must be kept as the evaluation")
	}
}

func TestGenerateSimilarQuestionStripsCodeFence(t *testing.T) {
	fenced := "```json\n{\"topic\": \"forces\"}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody(fenced)))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	raw, err := e.GenerateSimilarQuestion(context.Background(), tutoringQuestion("q1", ""), nil, "")
	if err != nil {
		t.Fatalf("GenerateSimilarQuestion: %v", err)
	}
	if string(raw) != `{"topic": "forces"}` {
		t.Fatalf("code fence not stripped: %q", raw)
	}
}

func TestAnalyzePhysicsImage(t *testing.T) {
	fenced := "```json\n{\"topic\": \"kinematics\", \"guided_steps\": []}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody(fenced)))
	}))
	defer srv.Close()

	e := testEvaluator(srv.URL)
	raw, err := e.AnalyzePhysicsImage(context.Background(), []byte("photo"), "image/jpeg")
	if err != nil {
		t.Fatalf("AnalyzePhysicsImage: %v", err)
	}
	if string(raw) != `{"topic": "kinematics", "guided_steps": []}` {
		t.Fatalf("code fence not stripped: %q", raw)
	}

	if _, err := e.AnalyzePhysicsImage(context.Background(), nil, "image/png"); err == nil {
		t.Fatal("empty image must be rejected before the call")
	}
}

func TestNotConfigured(t *testing.T) {
	cfg := &config.AIConfig{TimeoutMS: 1000}
	e := NewEvaluatorService(cfg, zap.NewNop())
	if _, err := e.EnrichFeedback(context.Background(), sampleStep(), "A", true, "base"); err != ErrAINotConfigured {
		t.Fatalf("expected ErrAINotConfigured, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
