package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"physitutor/internal/config"
	"physitutor/internal/model"
)

// EvaluatorService handles AI advisory calls via the Gemini API. Every method
// returns an error on failure; the dialogue service owns the deterministic
// fallbacks, so failures here never reach the student as errors.
type EvaluatorService struct {
	config *config.AIConfig
	client *http.Client
	log    *zap.Logger
}

// ErrAINotConfigured is returned when no API key is set.
var ErrAINotConfigured = fmt.Errorf("gemini api key not configured")

// NewEvaluatorService creates a new evaluator service
func NewEvaluatorService(cfg *config.AIConfig, log *zap.Logger) *EvaluatorService {
	return &EvaluatorService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		log: log,
	}
}

// EnrichFeedback generates guidance beyond the authored feedback text,
// requested after repeated failure on a step.
func (s *EvaluatorService) EnrichFeedback(ctx context.Context, step *model.QuestionStep, choice string, correct bool, baseFeedback string) (string, error) {
	if !s.config.IsEnabled() {
		return "", ErrAINotConfigured
	}

	prompt := s.buildFeedbackPrompt(step, choice, correct, baseFeedback)
	response, err := s.callGemini(ctx, s.config.Models.Feedback, prompt, nil, "")
	if err != nil {
		return "", err
	}

	var result struct {
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &result); err != nil || result.Feedback == "" {
		// Model answered in prose instead of JSON; still usable.
		text := strings.TrimSpace(response)
		if text == "" {
			return "", fmt.Errorf("empty feedback from model")
		}
		return text, nil
	}
	return strings.TrimSpace(result.Feedback), nil
}

// EvaluateReasoning judges the student's free-form explanation against the
// question and returns an evaluation plus a model solution.
func (s *EvaluatorService) EvaluateReasoning(ctx context.Context, q *model.Question, text, image string) (*model.ReasoningEvaluation, error) {
	if !s.config.IsEnabled() {
		return nil, ErrAINotConfigured
	}

	prompt := s.buildReasoningPrompt(q, text)
	response, err := s.callGemini(ctx, s.config.Models.Reasoning, prompt, nil, "")
	if err != nil {
		return nil, err
	}

	var result model.ReasoningEvaluation
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &result); err != nil {
		// Keep whatever narrative came back rather than dropping the call.
		return &model.ReasoningEvaluation{
			Evaluation:       strings.TrimSpace(response),
			StandardSolution: "",
		}, nil
	}
	return &result, nil
}

// GenerateSimilarQuestion produces the raw JSON of a transfer question with
// the same reasoning structure but a different scenario. The caller validates
// the payload before it enters the catalog.
func (s *EvaluatorService) GenerateSimilarQuestion(ctx context.Context, q *model.Question, image []byte, mimeType string) ([]byte, error) {
	if !s.config.IsEnabled() {
		return nil, ErrAINotConfigured
	}

	prompt := s.buildTransferPrompt(q)
	response, err := s.callGemini(ctx, s.config.Models.Transfer, prompt, image, mimeType)
	if err != nil {
		return nil, err
	}
	return []byte(stripCodeFence(response)), nil
}

// AnalyzePhysicsImage turns a photographed physics problem into the raw JSON
// of a guided question. As with generation, the payload is untrusted and the
// caller validates it before catalog registration.
func (s *EvaluatorService) AnalyzePhysicsImage(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	if !s.config.IsEnabled() {
		return nil, ErrAINotConfigured
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	response, err := s.callGemini(ctx, s.config.Models.Analyze, s.buildAnalyzePrompt(), image, mimeType)
	if err != nil {
		return nil, err
	}
	return []byte(stripCodeFence(response)), nil
}

// callGemini makes a request to the Gemini API with a bounded retry budget
// for transient failures.
func (s *EvaluatorService) callGemini(ctx context.Context, modelName, prompt string, image []byte, mimeType string) (string, error) {
	parts := []map[string]interface{}{
		{"text": prompt},
	}
	if len(image) > 0 {
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": mimeType,
				"data":      base64.StdEncoding.EncodeToString(image),
			},
		})
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		text, retryable, err := s.doRequest(ctx, url, jsonBody)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		s.log.Debug("gemini call failed, retrying",
			zap.String("model", modelName), zap.Int("attempt", attempt), zap.Error(err))
	}
	return "", lastErr
}

func (s *EvaluatorService) doRequest(ctx context.Context, url string, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode >= 500, fmt.Errorf("gemini %d: %s", resp.StatusCode, string(raw))
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &geminiResp); err != nil {
		return "", false, err
	}
	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, false, nil
	}
	return "", false, fmt.Errorf("empty response from gemini")
}

// Prompt builders
func (s *EvaluatorService) buildFeedbackPrompt(step *model.QuestionStep, choice string, correct bool, baseFeedback string) string {
	status := "incorrect"
	if correct {
		status = "correct"
	}
	return fmt.Sprintf(`You are a physics tutor guiding a student through a problem one judgment at a time.
Return ONLY valid JSON: {"feedback": "one or two short sentences"}

Current step: %s
Student's choice: %s
Verdict: %s
Authored feedback: %s

Write a concise guiding reply building on the authored feedback.
- If correct: confirm the judgment and briefly say why it is the key decision.
- If incorrect: point at the flaw in the logic, but do NOT reveal the correct answer.`,
		step.Prompt, choice, status, baseFeedback)
}

func (s *EvaluatorService) buildReasoningPrompt(q *model.Question, reasoning string) string {
	return fmt.Sprintf(`You are a physics tutor. Evaluate the student's solution approach for this problem and provide a standard solution.
Return ONLY valid JSON:
{
  "evaluation": "comments on the student's reasoning (name strengths and gaps, encouraging tone)",
  "standard_solution": "clear standard solution steps"
}

Problem: %s
Asked: %s

Student's reasoning:
"%s"`,
		q.Context.Description, strings.Join(q.Context.Ask, "; "), reasoning)
}

func (s *EvaluatorService) buildTransferPrompt(q *model.Question) string {
	steps, _ := json.Marshal(q.GuidedSteps)
	return fmt.Sprintf(`You are a physics tutor. Generate a transfer question: same physical concepts and reasoning structure as the original, different numbers and scenario, less hand-holding.
Return ONLY valid JSON matching this schema:
{
  "topic": "...",
  "difficulty": "...",
  "question_context": {"description": "...", "ask": ["..."]},
  "guided_steps": [
    {"step_id": 1, "type": "...", "prompt": "...", "options": ["A. ...", "B. ..."],
     "correct": "A", "feedback": {"correct": "...", "incorrect": "..."}}
  ]
}

Original topic: %s
Original difficulty: %s
Original problem: %s
Original guided steps: %s

Keep the step count and option labels; every step's "correct" label must match exactly one option.`,
		q.Topic, q.Difficulty, q.Context.Description, string(steps))
}

func (s *EvaluatorService) buildAnalyzePrompt() string {
	return `You are a physics tutor. The image shows a physics problem. Read it and turn it into a guided question: decompose the solution into 2-5 forced-choice judgment steps a student must get right in order.
Return ONLY valid JSON matching this schema:
{
  "topic": "...",
  "difficulty": "easy|medium|hard",
  "question_context": {"description": "full problem statement from the image", "ask": ["what is asked"]},
  "guided_steps": [
    {"step_id": 1, "type": "...", "prompt": "...", "options": ["A. ...", "B. ..."],
     "correct": "A", "feedback": {"correct": "...", "incorrect": "..."}}
  ]
}

Every step's "correct" label must match exactly one option. Incorrect feedback guides without revealing the answer.`
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
