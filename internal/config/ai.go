package config

import "os"

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Feedback is for escalated per-step feedback (needs to be fast)
	Feedback string `json:"feedback"`

	// Reasoning is for free-form reasoning evaluation (quality over speed)
	Reasoning string `json:"reasoning"`

	// Transfer is for similar-question generation (quality over speed)
	Transfer string `json:"transfer"`

	// Analyze is for photo-to-question analysis (needs vision input)
	Analyze string `json:"analyze"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string       `json:"-"` // Never serialize
	BaseURL   string       `json:"baseUrl"`
	Models    GeminiModels `json:"models"`
	TimeoutMS int          `json:"timeoutMs"`

	// MaxRetries is the retry budget for transient (5xx/network) failures.
	MaxRetries int `json:"maxRetries"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			Feedback:  getEnvOrDefault("GEMINI_MODEL_FEEDBACK", "gemini-2.0-flash"),
			Reasoning: getEnvOrDefault("GEMINI_MODEL_REASONING", "gemini-2.0-flash"),
			Transfer:  getEnvOrDefault("GEMINI_MODEL_TRANSFER", "gemini-2.0-flash"),
			Analyze:   getEnvOrDefault("GEMINI_MODEL_ANALYZE", "gemini-2.0-flash"),
		},
		TimeoutMS:  30000,
		MaxRetries: 2,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
