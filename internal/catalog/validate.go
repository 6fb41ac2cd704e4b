package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"physitutor/internal/model"
)

// Validate checks the structural invariants of a question definition: a
// non-empty contiguous step sequence starting at 1, labeled options, and a
// correct label matching exactly one option.
func Validate(q *model.Question) error {
	if q.ID == "" {
		return fmt.Errorf("question id is empty")
	}
	if len(q.GuidedSteps) == 0 {
		return fmt.Errorf("question %q has no guided steps", q.ID)
	}
	for i := range q.GuidedSteps {
		step := &q.GuidedSteps[i]
		if step.StepID != i+1 {
			return fmt.Errorf("question %q: step ids must be contiguous from 1, got %d at position %d", q.ID, step.StepID, i)
		}
		if len(step.Options) == 0 {
			return fmt.Errorf("question %q step %d has no options", q.ID, step.StepID)
		}
		labels := step.Labels()
		if len(labels) != len(step.Options) {
			return fmt.Errorf("question %q step %d has an unlabeled option", q.ID, step.StepID)
		}
		matches := 0
		for _, l := range labels {
			if l == step.Correct {
				matches++
			}
		}
		if matches != 1 {
			return fmt.Errorf("question %q step %d: correct label %q matches %d options", q.ID, step.StepID, step.Correct, matches)
		}
	}
	return nil
}

// ParseGenerated turns a loosely-typed AI-generated payload into a validated
// Question with the given id. Generated content is never trusted as-is:
// labels are normalized and the full invariant set is checked before the
// question can enter the catalog.
func ParseGenerated(data []byte, id string) (*model.Question, error) {
	var q model.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("generated question is not valid JSON: %w", err)
	}
	q.ID = id
	// Generated questions end the session chain unless the generator is asked
	// for a follow-up explicitly.
	q.NextSimilarQuestionID = ""
	for i := range q.GuidedSteps {
		step := &q.GuidedSteps[i]
		step.Correct = strings.ToUpper(strings.TrimSpace(step.Correct))
		for j, opt := range step.Options {
			step.Options[j] = strings.TrimSpace(opt)
		}
		if step.StepID == 0 {
			step.StepID = i + 1
		}
	}
	if err := Validate(&q); err != nil {
		return nil, err
	}
	return &q, nil
}
