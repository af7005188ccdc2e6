package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var ErrEmptyResponse = errors.New("llm response did not contain a message")

// Config holds LLM client configuration.
type Config struct {
	Provider string        // "openai" or "anthropic"
	APIKey   string        // Required: API key for the provider
	BaseURL  string        // Optional: custom API endpoint
	Model    string        // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
	Timeout  time.Duration // Optional: per-request timeout, SDK default when zero
}

// Client produces a single text completion for a system + user prompt pair.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       any // Optional: JSON schema for providers that support structured output
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

// Response carries the raw completion text. Callers validate it themselves.
type Response struct {
	ID               string
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// NewClient creates a Client for cfg.Provider. Defaults to OpenAI.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GenerateSchema reflects a JSON schema for T. The root type is expanded
// inline and nested types go to $defs, which keeps recursive types finite.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}
