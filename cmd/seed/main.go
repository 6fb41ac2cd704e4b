package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"physitutor/internal/catalog"
	"physitutor/internal/model"
)

// Seeds the question directory with a starter question set and validates
// every question file found there.
func main() {
	dir := os.Getenv("QUESTIONS_DIR")
	if dir == "" {
		dir = "data/questions"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Failed to create questions dir: %v", err)
	}

	for _, q := range starterQuestions() {
		path := filepath.Join(dir, q.ID+".json")
		if _, err := os.Stat(path); err == nil {
			continue // never overwrite authored files
		}
		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal %s: %v", q.ID, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("seeded %s\n", path)
	}

	// Validation report over the whole directory
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		log.Fatalf("Failed to list %s: %v", dir, err)
	}

	failed := 0
	for _, path := range paths {
		q, err := catalog.LoadFile(path)
		if err != nil {
			fmt.Printf("INVALID %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("ok      %s (%s, %d steps)\n", path, q.ID, len(q.GuidedSteps))
	}

	fmt.Printf("%d file(s), %d invalid\n", len(paths), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func starterQuestions() []*model.Question {
	return []*model.Question{
		{
			ID:         "proj_001",
			Topic:      "projectile_motion",
			Difficulty: "medium",
			Context: model.QuestionContext{
				Description: "A ball is thrown horizontally from the top of a 20 m tall building with an initial speed of 10 m/s. Air resistance is negligible and g = 10 m/s^2.",
				Ask:         []string{"How far from the base of the building does the ball land?"},
			},
			GuidedSteps: []model.QuestionStep{
				{
					StepID: 1,
					Type:   "concept_recognition",
					Prompt: "What kind of motion does the ball undergo in the vertical direction?",
					Options: []string{
						"A) Uniform velocity",
						"B) Free fall with constant acceleration",
						"C) Uniformly decelerated motion",
					},
					Correct: "B",
					Feedback: model.StepFeedback{
						Correct:   "Right. Vertically the ball starts from rest and accelerates downward at g.",
						Incorrect: "Look at the vertical direction alone. The ball has no initial vertical speed, and gravity is the only force acting on it.",
					},
				},
				{
					StepID: 2,
					Type:   "equation_selection",
					Prompt: "Which equation gives the time the ball spends in the air?",
					Options: []string{
						"A) h = v*t",
						"B) h = (1/2)*g*t^2",
						"C) v = g*t",
					},
					Correct: "B",
					Feedback: model.StepFeedback{
						Correct:   "Correct. The fall time depends only on the height: t = sqrt(2h/g) = 2 s.",
						Incorrect: "The vertical drop starts from rest, so the displacement equation with zero initial vertical velocity applies.",
					},
				},
				{
					StepID: 3,
					Type:   "calculation",
					Prompt: "Using t = 2 s, how far does the ball travel horizontally?",
					Options: []string{
						"A) 10 m",
						"B) 40 m",
						"C) 20 m",
					},
					Correct: "C",
					Feedback: model.StepFeedback{
						Correct:   "Correct. Horizontal velocity is constant, so x = v*t = 10 * 2 = 20 m.",
						Incorrect: "The horizontal velocity never changes. Multiply it by the fall time you found in the previous step.",
					},
				},
			},
			NextSimilarQuestionID: "proj_002",
		},
		{
			ID:         "proj_002",
			Topic:      "projectile_motion",
			Difficulty: "medium",
			Context: model.QuestionContext{
				Description: "A stone is thrown horizontally at 5 m/s from a 45 m high cliff. Air resistance is negligible and g = 10 m/s^2.",
				Ask:         []string{"How far from the base of the cliff does the stone land?"},
			},
			GuidedSteps: []model.QuestionStep{
				{
					StepID: 1,
					Type:   "equation_selection",
					Prompt: "Which relation gives the time of flight?",
					Options: []string{
						"A) t = h/v",
						"B) t = sqrt(2h/g)",
						"C) t = v/g",
					},
					Correct: "B",
					Feedback: model.StepFeedback{
						Correct:   "Right. The vertical drop from rest gives t = sqrt(2*45/10) = 3 s.",
						Incorrect: "The time of flight comes from the vertical motion, which starts with zero vertical velocity.",
					},
				},
				{
					StepID: 2,
					Type:   "calculation",
					Prompt: "With t = 3 s, what is the horizontal range?",
					Options: []string{
						"A) 15 m",
						"B) 45 m",
						"C) 30 m",
					},
					Correct: "A",
					Feedback: model.StepFeedback{
						Correct:   "Correct. x = v*t = 5 * 3 = 15 m.",
						Incorrect: "Multiply the constant horizontal speed by the time of flight.",
					},
				},
			},
		},
	}
}
