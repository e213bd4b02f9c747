package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotConfigured is returned when no AI provider credential is present.
// It is a recognized, user-visible failure mode, not a crash.
var ErrNotConfigured = errors.New("AI service is not configured")

// Completer sends a prompt to a text completion model and returns the raw
// textual response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a fixed-size vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client is a full AI provider: completions plus embeddings.
type Client interface {
	Completer
	Embedder
}

// EmbeddingDim is the vector size stored in Postgres. Both providers are
// configured to emit this dimensionality.
const EmbeddingDim = 1536

type Config struct {
	Provider     string // "gemini" (default) or "openai"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

func ConfigFromEnv() Config {
	cfg := Config{
		Provider:     os.Getenv("AI_PROVIDER"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	return cfg
}

// NewClient builds the provider selected by config. Returns ErrNotConfigured
// when the selected provider has no credential, so callers can degrade
// instead of failing at startup.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.Provider)
	}
}

// MalformedJSONError means the model response contained no parsable JSON.
type MalformedJSONError struct {
	Raw string
}

func (e *MalformedJSONError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("model response is not valid JSON: %s", raw)
}

// SchemaError means the response parsed but did not match the expected shape.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "model response does not match expected shape: " + e.Reason
}
