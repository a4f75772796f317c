// ABOUTME: Processor turns one document group into one generated plan fragment
// ABOUTME: It is the failure-isolation boundary: errors and panics come back as ChunkResult data
package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/migration-planner/internal/models"
	"github.com/harper/migration-planner/internal/prompt"
)

// ChunkSystemPrompt is the system-role instruction for every chunk call
const ChunkSystemPrompt = "You are an expert in webMethods to Boomi migration."

// Generator is the text-generation backend
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Processor analyzes document groups through the generation backend
type Processor struct {
	generator    Generator
	template     *prompt.Template
	contextSlice int
	timeout      time.Duration
	logger       *log.Logger
}

// NewProcessor creates a Processor. contextSlice bounds how much research context enters
// each prompt; timeout bounds each backend call.
func NewProcessor(generator Generator, tmpl *prompt.Template, contextSlice int, timeout time.Duration, logger *log.Logger) *Processor {
	if tmpl == nil {
		tmpl = prompt.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Processor{
		generator:    generator,
		template:     tmpl,
		contextSlice: contextSlice,
		timeout:      timeout,
		logger:       logger,
	}
}

// Process makes exactly one backend call for the group. index is the 1-based group position.
// It never returns an error; failures are recorded in the result.
func (p *Processor) Process(ctx context.Context, group models.Group, researchContext string, index int) (result models.ChunkResult) {
	result.Index = index
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Text = ""
			result.Err = fmt.Errorf("panic: %v", r)
		}
		if result.Err != nil {
			p.logger.Error("chunk failed", "chunk", index, "files", len(group.Documents), "err", result.Err)
			return
		}
		p.logger.Info("chunk processed", "chunk", index, "files", len(group.Documents),
			"chars", CharCount(result.Text), "took", time.Since(start).Round(time.Millisecond))
	}()

	userPrompt, err := p.BuildPrompt(group, researchContext)
	if err != nil {
		result.Err = err
		return result
	}

	p.logger.Debug("chunk prompt built", "chunk", index, "files", group.Names(),
		"est_tokens", EstimateTokens(userPrompt), "truncated", group.Truncated)

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	text, err := p.generator.Generate(callCtx, ChunkSystemPrompt, userPrompt)
	if err != nil {
		result.Err = err
		return result
	}
	result.Text = text
	return result
}

// BuildPrompt renders the chunk prompt: clipped research context plus every document labeled by name
func (p *Processor) BuildPrompt(group models.Group, researchContext string) (string, error) {
	if len(group.Documents) == 0 {
		return "", fmt.Errorf("empty group")
	}
	out, err := p.template.Render(prompt.Data{
		Context: TruncateChars(researchContext, p.contextSlice),
		Files:   group.Documents,
	})
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}
	return out, nil
}
