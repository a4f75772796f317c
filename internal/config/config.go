// ABOUTME: Centralized configuration for the migration planner
// ABOUTME: Loads from environment variables with struct-tag validation and defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfigurationError reports a missing credential or invalid setting found at startup
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// Config holds all configuration for the planner
type Config struct {
	// LLM backend (OpenAI-compatible, OpenRouter by default)
	APIKey      string        `validate:"required"`
	BaseURL     string        `validate:"required,url"`
	Model       string        `validate:"required"`
	Temperature float64       `validate:"gte=0,lte=2"`
	MaxTokens   int           `validate:"gt=0"`
	LLMTimeout  time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=0,lte=10"`
	RetryDelay  time.Duration `validate:"gte=0"`

	// Research enrichment
	SearchEnabled    bool
	SearchTimeout    time.Duration `validate:"gt=0"`
	SearchMaxQueries int           `validate:"gte=0,lte=5"`
	SearchAttempts   int           `validate:"gte=1,lte=5"`
	SearchInterval   time.Duration `validate:"gte=0"`

	// Pipeline budgets (characters)
	GroupBudgetChars            int `validate:"gt=0"`
	SingleDocTruncateChars      int `validate:"gt=0"`
	EnrichmentContextLimitChars int `validate:"gt=0"`
	SynthesisInputLimitChars    int `validate:"gt=0"`
	PromptContextSliceChars     int `validate:"gt=0"`
	ChunkConcurrency            int `validate:"gte=1,lte=16"`

	// Prompt template file; empty means the built-in template
	PromptFile string

	// HTTP surface
	Host string
	Port int `validate:"gt=0,lte=65535"`

	LogLevel string `validate:"oneof=debug info warn error"`
}

// Load reads configuration from environment variables.
// A value that does not parse, or a setting outside its constraints, is a *ConfigurationError.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadOffline is Load without the model credential, for commands that never call the model
func LoadOffline() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.validate("APIKey")
}

func read() (*Config, error) {
	var env envReader
	cfg := &Config{
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		BaseURL:     env.str("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:       env.str("MODEL_NAME", "anthropic/claude-opus-4"),
		Temperature: env.float("LLM_TEMPERATURE", 0.7),
		MaxTokens:   env.int("LLM_MAX_TOKENS", 4000),
		LLMTimeout:  env.duration("LLM_TIMEOUT", 120*time.Second),
		MaxRetries:  env.int("LLM_MAX_RETRIES", 2),
		RetryDelay:  env.duration("LLM_RETRY_DELAY", 2*time.Second),

		SearchEnabled:    env.bool("SEARCH_ENABLED", true),
		SearchTimeout:    env.duration("SEARCH_TIMEOUT", 10*time.Second),
		SearchMaxQueries: env.int("SEARCH_MAX_QUERIES", 1),
		SearchAttempts:   env.int("SEARCH_ATTEMPTS", 2),
		SearchInterval:   env.duration("SEARCH_INTERVAL", 2*time.Second),

		GroupBudgetChars:            env.int("GROUP_BUDGET_CHARS", 40000),
		SingleDocTruncateChars:      env.int("SINGLE_DOC_TRUNCATE_CHARS", 50000),
		EnrichmentContextLimitChars: env.int("ENRICHMENT_CONTEXT_LIMIT_CHARS", 3000),
		SynthesisInputLimitChars:    env.int("SYNTHESIS_INPUT_LIMIT_CHARS", 10000),
		PromptContextSliceChars:     env.int("PROMPT_CONTEXT_SLICE_CHARS", 2000),
		ChunkConcurrency:            env.int("CHUNK_CONCURRENCY", 1),

		PromptFile: os.Getenv("PROMPT_FILE"),
		Host:       env.str("APP_HOST", "0.0.0.0"),
		Port:       env.int("APP_PORT", 8000),
		LogLevel:   strings.ToLower(env.str("LOG_LEVEL", "info")),
	}
	if env.err != nil {
		return nil, env.err
	}
	return cfg, nil
}

// Validate checks every field against its constraints and reports the first violation
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) validate(skip ...string) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	var err error
	if len(skip) > 0 {
		err = validate.StructExcept(c, skip...)
	} else {
		err = validate.Struct(c)
	}
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		key := envKeys[fe.Field()]
		if key == "" {
			key = fe.Field()
		}
		if fe.Tag() == "required" {
			return &ConfigurationError{Key: key, Reason: "is not set"}
		}
		return &ConfigurationError{Key: key, Reason: fmt.Sprintf("failed %q constraint (got %v)", fe.Tag(), fe.Value())}
	}
	return &ConfigurationError{Key: "config", Reason: err.Error()}
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var envKeys = map[string]string{
	"APIKey":                      "OPENROUTER_API_KEY",
	"BaseURL":                     "OPENROUTER_BASE_URL",
	"Model":                       "MODEL_NAME",
	"Temperature":                 "LLM_TEMPERATURE",
	"MaxTokens":                   "LLM_MAX_TOKENS",
	"LLMTimeout":                  "LLM_TIMEOUT",
	"MaxRetries":                  "LLM_MAX_RETRIES",
	"RetryDelay":                  "LLM_RETRY_DELAY",
	"SearchTimeout":               "SEARCH_TIMEOUT",
	"SearchMaxQueries":            "SEARCH_MAX_QUERIES",
	"SearchAttempts":              "SEARCH_ATTEMPTS",
	"SearchInterval":              "SEARCH_INTERVAL",
	"GroupBudgetChars":            "GROUP_BUDGET_CHARS",
	"SingleDocTruncateChars":      "SINGLE_DOC_TRUNCATE_CHARS",
	"EnrichmentContextLimitChars": "ENRICHMENT_CONTEXT_LIMIT_CHARS",
	"SynthesisInputLimitChars":    "SYNTHESIS_INPUT_LIMIT_CHARS",
	"PromptContextSliceChars":     "PROMPT_CONTEXT_SLICE_CHARS",
	"ChunkConcurrency":            "CHUNK_CONCURRENCY",
	"Port":                        "APP_PORT",
	"LogLevel":                    "LOG_LEVEL",
}

// envReader parses environment values and keeps the first malformed one
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (r *envReader) fail(key, value string) {
	if r.err == nil {
		r.err = &ConfigurationError{Key: key, Reason: fmt.Sprintf("has invalid value %q", value)}
	}
}

func (r *envReader) str(key, defaultVal string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return defaultVal
}

func (r *envReader) bool(key string, defaultVal bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v)
		return defaultVal
	}
	return b
}

func (r *envReader) int(key string, defaultVal int) int {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, v)
		return defaultVal
	}
	return i
}

func (r *envReader) float(key string, defaultVal float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		r.fail(key, v)
		return defaultVal
	}
	return f
}

func (r *envReader) duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, v)
		return defaultVal
	}
	return d
}
