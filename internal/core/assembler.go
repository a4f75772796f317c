// ABOUTME: Assembler merges chunk outputs into the final migration plan
// ABOUTME: One chunk passes through; several are synthesized by one extra backend call
package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/migration-planner/internal/models"
)

// SynthesisSystemPrompt is the system-role instruction for the combining call
const SynthesisSystemPrompt = "You are an expert in creating migration plans."

// Assembler produces the final plan from chunk results
type Assembler struct {
	generator  Generator
	inputLimit int
	timeout    time.Duration
	logger     *log.Logger
}

// NewAssembler creates an Assembler. inputLimit clips the combined parts sent for synthesis.
func NewAssembler(generator Generator, inputLimit int, timeout time.Duration, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Assembler{
		generator:  generator,
		inputLimit: inputLimit,
		timeout:    timeout,
		logger:     logger,
	}
}

// Assemble returns the plan for results, which must be in group order.
// A synthesis failure is returned as *SynthesisError; no partial plan is produced.
func (a *Assembler) Assemble(ctx context.Context, results []models.ChunkResult) (string, error) {
	var plan string

	switch len(results) {
	case 0:
		return "", ErrNoResults
	case 1:
		plan = results[0].Render()
	default:
		synthesized, err := a.synthesize(ctx, results)
		if err != nil {
			return "", &SynthesisError{Parts: len(results), Err: err}
		}
		plan = synthesized
	}

	return models.EnsureTitle(plan), nil
}

func (a *Assembler) synthesize(ctx context.Context, results []models.ChunkResult) (string, error) {
	userPrompt := a.SynthesisPrompt(results)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.generator.Generate(ctx, SynthesisSystemPrompt, userPrompt)
	if err != nil {
		a.logger.Error("synthesis failed", "parts", len(results), "err", err)
		return "", err
	}

	a.logger.Info("synthesis complete", "parts", len(results), "chars", CharCount(text),
		"took", time.Since(start).Round(time.Millisecond))
	return text, nil
}

// SynthesisPrompt labels each result as a numbered part and clips the combination to the input limit
func (a *Assembler) SynthesisPrompt(results []models.ChunkResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("## Part %d\n%s", i+1, r.Render())
	}
	combined := TruncateChars(strings.Join(parts, "\n\n"), a.inputLimit)

	return fmt.Sprintf(`
Combine these migration plan parts into a single, cohesive migration plan:

%s...

Create a unified Plan.md with:
1. Executive Summary
2. All identified processes
3. Consolidated Boomi AI prompts
4. Implementation strategy
`, combined)
}
