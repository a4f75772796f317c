// ABOUTME: Pipeline-level error types
// ABOUTME: Chunk failures never appear here; they are carried inside ChunkResult
package core

import (
	"errors"
	"fmt"

	"github.com/harper/migration-planner/internal/models"
)

// ErrNoDocuments is returned when a run is started with an empty batch
var ErrNoDocuments = errors.New("no documents provided")

// ErrNoResults is returned when assembly is asked to combine nothing
var ErrNoResults = errors.New("no chunk results to assemble")

// SynthesisError reports that the call combining multiple chunk outputs failed
type SynthesisError struct {
	Parts int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing %d plan parts: %v", e.Parts, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// CancelledError reports that the caller cancelled a run before all chunks were processed.
// Completed holds the results finished before cancellation, in group order.
type CancelledError struct {
	Completed []models.ChunkResult
	Total     int
	Err       error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled after %d of %d chunks: %v", len(e.Completed), e.Total, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
