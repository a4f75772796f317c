// ABOUTME: Enricher builds the research context injected into every chunk prompt
// ABOUTME: Live search is best-effort; any failure degrades to the static research summary
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// ResearchSummary is the static background used when live search is unavailable
const ResearchSummary = `## Research Summary (Cached)

### webMethods Architecture:
- Flow services use pipeline for data passing between steps
- Built-in services for data transformation, branching, and looping
- Adapter services for SAP, JDBC, JMS, REST, SOAP integrations
- Document types define data structures
- Error handling through try-catch blocks

### Boomi Architecture:
- Processes use shapes connected by lines
- Connectors for various systems (SAP, Database, HTTP, etc.)
- Map shape for data transformation
- Decision shape for branching logic
- Try/Catch shape for error handling

### Migration Patterns:
- webMethods BRANCH → Boomi Decision shape
- webMethods MAP → Boomi Map shape
- webMethods adapter services → Boomi connectors
- webMethods pipeline → Boomi process properties
- webMethods pub.flow:debugLog → Boomi Notify shape`

// DefaultQueries are tried in order, up to EnricherConfig.MaxQueries
var DefaultQueries = []string{
	"webMethods to Boomi migration guide",
	"Boomi AI prompt examples",
}

// Searcher runs one web search query
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// EnricherConfig bounds the live search step
type EnricherConfig struct {
	Queries    []string
	MaxQueries int
	// Timeout bounds each query including its retries
	Timeout time.Duration
	// Attempts is the number of tries per query
	Attempts int
	// Interval spaces successive queries to stay under the search rate limit
	Interval time.Duration
	// ResultChars clips each search result
	ResultChars int
}

// DefaultEnricherConfig returns the conservative defaults: one query, one attempt
func DefaultEnricherConfig() EnricherConfig {
	return EnricherConfig{
		Queries:     DefaultQueries,
		MaxQueries:  1,
		Timeout:     10 * time.Second,
		Attempts:    1,
		Interval:    2 * time.Second,
		ResultChars: 300,
	}
}

// Enricher produces the research context for a run
type Enricher struct {
	searcher Searcher
	config   EnricherConfig
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewEnricher creates an Enricher; a nil searcher always yields the static summary
func NewEnricher(searcher Searcher, config EnricherConfig, logger *log.Logger) *Enricher {
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultEnricherConfig().Timeout
	}
	if config.ResultChars <= 0 {
		config.ResultChars = DefaultEnricherConfig().ResultChars
	}

	limit := rate.Inf
	if config.Interval > 0 {
		limit = rate.Every(config.Interval)
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Enricher{
		searcher: searcher,
		config:   config,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Enrich returns the research context. It never fails and never returns an empty string.
func (e *Enricher) Enrich(ctx context.Context) string {
	if e.searcher == nil || e.config.MaxQueries <= 0 {
		return ResearchSummary
	}

	queries := e.config.Queries
	if len(queries) > e.config.MaxQueries {
		queries = queries[:e.config.MaxQueries]
	}

	var results []string
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("research stopped", "err", err)
			break
		}

		result, err := e.search(ctx, query)
		if err != nil {
			e.logger.Warn("search skipped", "query", query, "err", err)
			continue
		}
		results = append(results, "\nLive Search - "+query+":\n"+TruncateChars(result, e.config.ResultChars)+"...")
	}

	if len(results) == 0 {
		e.logger.Info("using cached research summary")
		return ResearchSummary
	}

	e.logger.Info("research complete", "results", len(results))
	return ResearchSummary + "\n\n### Live Search Results:\n" + strings.Join(results, "\n")
}

// search runs one query under its own timeout with a small bounded retry.
// The rate limiter is shared by every run on the pipeline, so the wait for a
// search slot counts against the same timeout; a slot further out than that is
// refused immediately and the query is skipped.
func (e *Enricher) search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for search slot: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond

	return backoff.Retry(ctx, func() (string, error) {
		result, err := e.searcher.Search(ctx, query)
		if err != nil {
			if !temporary(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		if strings.TrimSpace(result) == "" {
			return "", backoff.Permanent(errors.New("empty search result"))
		}
		return result, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(e.config.Attempts)),
	)
}

// temporary reports whether an error advertises itself as retryable
func temporary(err error) bool {
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}
