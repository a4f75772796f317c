// ABOUTME: Shared wiring for CLI commands: config, logger, and pipeline construction
// ABOUTME: Every command that talks to the model builds its pipeline here
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/migration-planner/internal/config"
	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/llm"
	"github.com/harper/migration-planner/internal/models"
	"github.com/harper/migration-planner/internal/prompt"
	"github.com/harper/migration-planner/internal/search"
	"github.com/harper/migration-planner/internal/util"
)

// loadConfig reads .env (if present) and the environment
func loadConfig() (*config.Config, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	return config.Load()
}

// loadOfflineConfig is loadConfig for commands that never call the model
func loadOfflineConfig() (*config.Config, error) {
	_ = godotenv.Load()

	return config.LoadOffline()
}

// logLevel applies the --verbose and --quiet overrides to the configured level
func logLevel(configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return configured
}

// newLogger builds the stderr logger; stdout is reserved for plans and MCP traffic
func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "planner",
		Level:           lvl,
	})
}

// pipelineOptions maps configuration onto pipeline budgets
func pipelineOptions(cfg *config.Config) core.Options {
	opts := core.DefaultOptions()
	opts.GroupBudgetChars = cfg.GroupBudgetChars
	opts.SingleDocTruncateChars = cfg.SingleDocTruncateChars
	opts.EnrichmentContextLimitChars = cfg.EnrichmentContextLimitChars
	opts.SynthesisInputLimitChars = cfg.SynthesisInputLimitChars
	opts.PromptContextSliceChars = cfg.PromptContextSliceChars
	opts.Concurrency = cfg.ChunkConcurrency

	// room for every attempt plus the longest backoff between them
	callBudget := time.Duration(cfg.MaxRetries+1)*cfg.LLMTimeout + time.Duration(cfg.MaxRetries)*util.MaxRetryDelay
	opts.ChunkTimeout = callBudget
	opts.SynthesisTimeout = callBudget
	return opts
}

// enricherConfig maps configuration onto the research step
func enricherConfig(cfg *config.Config) core.EnricherConfig {
	ec := core.DefaultEnricherConfig()
	ec.MaxQueries = cfg.SearchMaxQueries
	ec.Timeout = cfg.SearchTimeout
	ec.Attempts = cfg.SearchAttempts
	ec.Interval = cfg.SearchInterval
	return ec
}

// newPipeline wires the model client, search, and prompt template into a pipeline
func newPipeline(cfg *config.Config, logger *log.Logger) (*core.Pipeline, error) {
	clientCfg := llm.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.Model = cfg.Model
	clientCfg.Temperature = float32(cfg.Temperature)
	clientCfg.MaxTokens = cfg.MaxTokens
	clientCfg.Timeout = cfg.LLMTimeout
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RetryDelay = cfg.RetryDelay

	client, err := llm.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing model client: %w", err)
	}

	tmpl := prompt.Default()
	if cfg.PromptFile != "" {
		tmpl, err = prompt.Load(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("loading prompt: %w", err)
		}
	}

	var searcher core.Searcher
	if cfg.SearchEnabled {
		searcher = search.NewDuckDuckGo()
	}

	logger.Debug("pipeline configured", "model", client.Model(), "search", cfg.SearchEnabled,
		"budget", cfg.GroupBudgetChars, "concurrency", cfg.ChunkConcurrency)

	return core.NewPipeline(core.Dependencies{
		Generator: client,
		Searcher:  searcher,
		Enricher:  enricherConfig(cfg),
		Template:  tmpl,
		Logger:    logger,
	}, pipelineOptions(cfg))
}

// setup is the common prologue for commands that need a pipeline
func setup() (*config.Config, *log.Logger, *core.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(logLevel(cfg.LogLevel))

	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, pipeline, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}

// groupChars sums the character counts of docs
func groupChars(docs []models.Document) int {
	total := 0
	for _, d := range docs {
		total += core.CharCount(d.Content)
	}
	return total
}
