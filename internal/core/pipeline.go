// ABOUTME: Pipeline runs chunking, enrichment, per-chunk generation, and assembly for one batch
// ABOUTME: Built once with explicit dependencies and shared by every request
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harper/migration-planner/internal/models"
	"github.com/harper/migration-planner/internal/prompt"
)

// Options are the pipeline budgets and limits
type Options struct {
	GroupBudgetChars            int
	SingleDocTruncateChars      int
	EnrichmentContextLimitChars int
	SynthesisInputLimitChars    int
	PromptContextSliceChars     int
	// Concurrency is the number of chunks processed at once; 1 is strictly sequential
	Concurrency      int
	ChunkTimeout     time.Duration
	SynthesisTimeout time.Duration
}

// DefaultOptions returns the standard budgets
func DefaultOptions() Options {
	return Options{
		GroupBudgetChars:            40000,
		SingleDocTruncateChars:      50000,
		EnrichmentContextLimitChars: 3000,
		SynthesisInputLimitChars:    10000,
		PromptContextSliceChars:     2000,
		Concurrency:                 1,
		ChunkTimeout:                120 * time.Second,
		SynthesisTimeout:            180 * time.Second,
	}
}

// Validate rejects budgets that cannot produce a prompt
func (o Options) Validate() error {
	switch {
	case o.GroupBudgetChars <= 0:
		return fmt.Errorf("group budget must be positive, got %d", o.GroupBudgetChars)
	case o.SingleDocTruncateChars <= 0:
		return fmt.Errorf("single document truncation must be positive, got %d", o.SingleDocTruncateChars)
	case o.EnrichmentContextLimitChars <= 0:
		return fmt.Errorf("enrichment context limit must be positive, got %d", o.EnrichmentContextLimitChars)
	case o.SynthesisInputLimitChars <= 0:
		return fmt.Errorf("synthesis input limit must be positive, got %d", o.SynthesisInputLimitChars)
	case o.PromptContextSliceChars <= 0:
		return fmt.Errorf("prompt context slice must be positive, got %d", o.PromptContextSliceChars)
	case o.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	case o.ChunkTimeout <= 0 || o.SynthesisTimeout <= 0:
		return fmt.Errorf("backend timeouts must be positive")
	}
	return nil
}

// Dependencies are the collaborators a pipeline is built from
type Dependencies struct {
	Generator Generator
	// Searcher is optional; without it the static research summary is used
	Searcher Searcher
	Enricher EnricherConfig
	// Template is optional; nil uses the built-in prompt
	Template *prompt.Template
	Logger   *log.Logger
}

// Result is the outcome of a successful run
type Result struct {
	RunID   string
	Plan    string
	Groups  []models.Group
	Results []models.ChunkResult
}

// Failed returns how many chunks carry an error marker in the plan
func (r *Result) Failed() int {
	n := 0
	for _, cr := range r.Results {
		if !cr.OK() {
			n++
		}
	}
	return n
}

// Pipeline turns a document batch into a migration plan
type Pipeline struct {
	opts      Options
	chunker   *Chunker
	enricher  *Enricher
	processor *Processor
	assembler *Assembler
	logger    *log.Logger
}

// NewPipeline wires the pipeline components
func NewPipeline(deps Dependencies, opts Options) (*Pipeline, error) {
	if deps.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Pipeline{
		opts:      opts,
		chunker:   NewChunker(opts.GroupBudgetChars, opts.SingleDocTruncateChars),
		enricher:  NewEnricher(deps.Searcher, deps.Enricher, logger.WithPrefix("research")),
		processor: NewProcessor(deps.Generator, deps.Template, opts.PromptContextSliceChars, opts.ChunkTimeout, logger.WithPrefix("chunk")),
		assembler: NewAssembler(deps.Generator, opts.SynthesisInputLimitChars, opts.SynthesisTimeout, logger.WithPrefix("synthesis")),
		logger:    logger,
	}, nil
}

// Assembler exposes the assembler so callers can build a plan from a cancelled run's results
func (p *Pipeline) Assembler() *Assembler {
	return p.assembler
}

// Run processes docs and returns the plan.
//
// Per-chunk failures are embedded in the plan. A synthesis failure returns *SynthesisError.
// If ctx is cancelled no further chunks are started and *CancelledError is returned with
// the results completed so far.
func (p *Pipeline) Run(ctx context.Context, docs []models.Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	runID := "run_" + uuid.New().String()[:8]
	logger := p.logger.With("run", runID)
	logger.Info("processing files for migration", "files", len(docs))

	groups := p.chunker.Chunk(docs)
	logger.Info("split files into chunks", "chunks", len(groups))

	researchContext := TruncateChars(p.enricher.Enrich(ctx), p.opts.EnrichmentContextLimitChars)

	results, err := p.processAll(ctx, groups, researchContext, logger)
	if err != nil {
		return nil, err
	}

	plan, err := p.assembler.Assemble(ctx, results)
	if err != nil {
		logger.Error("assembly failed", "err", err)
		return nil, err
	}

	result := &Result{RunID: runID, Plan: plan, Groups: groups, Results: results}
	logger.Info("migration plan generated", "chars", CharCount(plan), "failed_chunks", result.Failed())
	return result, nil
}

// processAll runs every group through the processor, keeping results in group order
func (p *Pipeline) processAll(ctx context.Context, groups []models.Group, researchContext string, logger *log.Logger) ([]models.ChunkResult, error) {
	results := make([]models.ChunkResult, len(groups))
	completed := make([]bool, len(groups))

	// Plain errgroup: a failed chunk must not cancel its siblings
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for i, group := range groups {
		if ctx.Err() != nil {
			break
		}
		logger.Info("processing chunk", "chunk", i+1, "of", len(groups), "files", len(group.Documents))

		g.Go(func() error {
			// the slot may free up only after cancellation
			if ctx.Err() != nil {
				return nil
			}
			res := p.processor.Process(ctx, group, researchContext, i+1)
			if !res.OK() && ctx.Err() != nil {
				return nil
			}
			results[i] = res
			completed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		var done []models.ChunkResult
		for i, ok := range completed {
			if ok {
				done = append(done, results[i])
			}
		}
		logger.Warn("run cancelled", "completed", len(done), "of", len(groups))
		return nil, &CancelledError{Completed: done, Total: len(groups), Err: err}
	}

	return results, nil
}
