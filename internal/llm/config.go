package llm

import "fmt"

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskAnalyze TaskType = "analyze"
	TaskPlan    TaskType = "plan"
)

// Provider names a generation backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderGemini, ProviderOllama:
		return p, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q (want gemini or ollama)", s)
	}
}

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Provider   Provider
	LogCalls   bool
	Endpoint   string
	Model      string
	APIKey     string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2"
)

// DefaultConfig returns an LLMConfig with sensible defaults. The planning
// pipeline never retries on its own, so MaxRetries is zero.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:   ProviderGemini,
		LogCalls:   false,
		Endpoint:   DefaultGeminiEndpoint,
		Model:      DefaultGeminiModel,
		TimeoutMs:  30000,
		MaxRetries: 0,
		Tasks: map[TaskType]TaskConfig{
			TaskAnalyze: {Temperature: 0.4, MaxTokens: 2048, TimeoutMs: 45000},
			TaskPlan:    {Temperature: 0.3, MaxTokens: 4096, TimeoutMs: 30000},
		},
	}
}

// WithProviderDefaults fills an empty endpoint or model with the defaults of
// the configured provider.
func (c LLMConfig) WithProviderDefaults() LLMConfig {
	switch c.Provider {
	case ProviderOllama:
		if c.Endpoint == "" || c.Endpoint == DefaultGeminiEndpoint {
			c.Endpoint = DefaultOllamaEndpoint
		}
		if c.Model == "" || c.Model == DefaultGeminiModel {
			c.Model = DefaultOllamaModel
		}
	default:
		if c.Endpoint == "" {
			c.Endpoint = DefaultGeminiEndpoint
		}
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
	}
	return c
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}
