package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	OTel           OTelConfig
	Backlog        BacklogConfig
	LLM            LLMConfig
	Review         ReviewConfig
	Env            string
	Port           string
	RequestTimeout time.Duration // Deadline for one API request, tree walks and model call included
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type BacklogConfig struct {
	BaseURL        string
	APIKey         string // Optional: only used by the CLI, the HTTP API takes keys per request
	ProjectIDOrKey string // Optional: only used by the CLI
	Timeout        time.Duration
	MaxDepth       *int // nil = walk the whole tree
	// SiblingConcurrency caps parallel fetches under one parent, 0 = client default
	SiblingConcurrency int
}

type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string // Optional: only used by the CLI
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type ReviewConfig struct {
	Language string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

const envBacklogBaseURL = "BACKLOG_BASE_URL"

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.cli for the review CLI
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if value, ok := os.LookupEnv("SCORE_ENV"); !ok || value == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	env := &envReader{}
	cfg := Config{
		Env:            env.str("SCORE_ENV", "development"),
		Port:           env.str("PORT", "8080"),
		RequestTimeout: env.duration("REQUEST_TIMEOUT", 5*time.Minute),
		OTel: OTelConfig{
			Endpoint:       env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        env.str("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    env.str("OTEL_SERVICE_NAME", "score-service"),
			ServiceVersion: env.str("OTEL_SERVICE_VERSION", "dev"),
		},
		Backlog: BacklogConfig{
			BaseURL:            env.str(envBacklogBaseURL, ""),
			APIKey:             env.str("BACKLOG_API_KEY", ""),
			ProjectIDOrKey:     env.str("BACKLOG_PROJECT", ""),
			Timeout:            env.duration("BACKLOG_TIMEOUT", 30*time.Second),
			MaxDepth:           env.intPtr("BACKLOG_MAX_DEPTH"),
			SiblingConcurrency: env.int("BACKLOG_SIBLING_CONCURRENCY", 8),
		},
		LLM: LLMConfig{
			Provider:  env.str("LLM_PROVIDER", "openai"),
			APIKey:    env.str("LLM_API_KEY", ""),
			BaseURL:   env.str("LLM_BASE_URL", ""),
			Model:     env.str("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens: env.int("LLM_MAX_TOKENS", 8192),
			Timeout:   env.duration("LLM_TIMEOUT", 120*time.Second),
		},
		Review: ReviewConfig{
			Language: env.str("REVIEW_LANGUAGE", "Japanese"),
		},
	}
	if err := errors.Join(env.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	baseURL, err := NormalizeBacklogBaseURL(cfg.Backlog.BaseURL)
	if err != nil {
		return Config{}, err
	}
	cfg.Backlog.BaseURL = baseURL

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.By(isPort)),
		validation.Field(&c.RequestTimeout, validation.Min(time.Second)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Backlog,
		validation.Field(&c.Backlog.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Backlog.MaxDepth, validation.Min(0)),
		validation.Field(&c.Backlog.SiblingConcurrency, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("backlog: %w", err)
	}

	if err := validation.ValidateStruct(&c.LLM,
		validation.Field(&c.LLM.Provider, validation.Required, validation.In("openai", "anthropic")),
		validation.Field(&c.LLM.MaxTokens, validation.Min(1)),
		validation.Field(&c.LLM.Timeout, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	return nil
}

// NormalizeBacklogBaseURL validates the Backlog space URL and reduces it to its origin.
// The URL must use http or https and must not carry a path, query, or fragment.
func NormalizeBacklogBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("environment variable %s is required", envBacklogBaseURL)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("environment variable %s must be a valid URL", envBacklogBaseURL)
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("environment variable %s must use http or https", envBacklogBaseURL)
	}

	if (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" || parsed.ForceQuery || parsed.Fragment != "" {
		return "", fmt.Errorf("environment variable %s must not include a path, query, or fragment", envBacklogBaseURL)
	}

	return parsed.Scheme + "://" + strings.ToLower(parsed.Host), nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func isPort(value any) error {
	s, _ := value.(string)
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("must be a valid port number")
	}
	return nil
}

// envReader reads typed settings and collects malformed values so Load can
// report them together. Empty values count as unset.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (r *envReader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (r *envReader) int(key string, fallback int) int {
	if p := r.intPtr(key); p != nil {
		return *p
	}
	return fallback
}

func (r *envReader) intPtr(key string) *int {
	value, ok := r.lookup(key)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("environment variable %s must be an integer, got %q", key, value))
		return nil
	}
	return &i
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("environment variable %s must be a duration such as 30s, got %q", key, value))
		return fallback
	}
	return d
}
