package model

import "strings"

// StepFeedback holds the authored feedback texts for one step.
type StepFeedback struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect"`
}

// QuestionStep is a single forced-choice judgment point within a question.
// Step ids are contiguous starting at 1; options carry their letter label as
// the first character (e.g. "A. The net force is zero").
type QuestionStep struct {
	StepID   int          `json:"step_id"`
	Type     string       `json:"type"` // e.g. "concept_judgement", "direction_judgement"
	Prompt   string       `json:"prompt"`
	Options  []string     `json:"options"`
	Correct  string       `json:"correct"`
	Feedback StepFeedback `json:"feedback"`
}

// Labels returns the leading letter label of each option, in order.
func (s *QuestionStep) Labels() []string {
	labels := make([]string, 0, len(s.Options))
	for _, opt := range s.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		labels = append(labels, strings.ToUpper(opt[:1]))
	}
	return labels
}

// QuestionContext is the shared problem statement shown alongside every step.
type QuestionContext struct {
	Description string   `json:"description"`
	Ask         []string `json:"ask"`
}

// Question is an immutable question definition. Instances come from authored
// JSON files or from AI generation; they are never mutated after registration.
type Question struct {
	ID                    string          `json:"id"`
	Topic                 string          `json:"topic"`
	Difficulty            string          `json:"difficulty"`
	Image                 string          `json:"image,omitempty"`
	Context               QuestionContext `json:"question_context"`
	GuidedSteps           []QuestionStep  `json:"guided_steps"`
	NextSimilarQuestionID string          `json:"next_similar_question_id,omitempty"`
}

// Step returns the step with the given id, or nil if absent.
func (q *Question) Step(stepID int) *QuestionStep {
	for i := range q.GuidedSteps {
		if q.GuidedSteps[i].StepID == stepID {
			return &q.GuidedSteps[i]
		}
	}
	return nil
}

// QuestionInfo is the discovery listing entry for a catalog question.
type QuestionInfo struct {
	ID         string `json:"id"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}
