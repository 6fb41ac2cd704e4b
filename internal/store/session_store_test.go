package store

import (
	"errors"
	"sync"
	"testing"

	"physitutor/internal/model"
)

func newState(id string) *model.SessionState {
	return &model.SessionState{
		SessionID:     id,
		QuestionID:    "q1",
		CurrentStepID: 1,
		Phase:         model.PhaseActive,
		TotalSteps:    3,
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewSessionStore()
	s.Put(newState("s1"))

	snap, ok := s.Get("s1")
	if !ok {
		t.Fatal("session not found")
	}
	snap.CurrentStepID = 99

	again, _ := s.Get("s1")
	if again.CurrentStepID != 1 {
		t.Fatalf("snapshot mutation leaked into store: step %d", again.CurrentStepID)
	}
}

func TestUpdateUnknownSession(t *testing.T) {
	s := NewSessionStore()
	err := s.Update("nope", func(st *model.SessionState) error { return nil })
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdatePropagatesError(t *testing.T) {
	s := NewSessionStore()
	s.Put(newState("s1"))

	wantErr := errors.New("boom")
	err := s.Update("s1", func(st *model.SessionState) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	s := NewSessionStore()
	s.Put(newState("s1"))

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = s.Update("s1", func(st *model.SessionState) error {
				st.TotalRetries++
				return nil
			})
		}()
	}
	wg.Wait()

	state, _ := s.Get("s1")
	if state.TotalRetries != n {
		t.Fatalf("lost updates: got %d, want %d", state.TotalRetries, n)
	}
}

func TestDelete(t *testing.T) {
	s := NewSessionStore()
	s.Put(newState("s1"))

	final, ok := s.Delete("s1")
	if !ok || final.SessionID != "s1" {
		t.Fatalf("delete should return final state")
	}
	if _, ok := s.Delete("s1"); ok {
		t.Fatal("second delete should report missing")
	}
	if s.Len() != 0 {
		t.Fatalf("store should be empty, has %d", s.Len())
	}
}
