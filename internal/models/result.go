// ABOUTME: ChunkResult carries the outcome of one chunk generation call as Ok(text) or Err
// ABOUTME: Failures are rendered as inline error markers only when the plan is serialized
package models

import (
	"fmt"
	"strings"
)

// PlanTitle is the first line of every migration plan
const PlanTitle = "# WebMethods to Boomi Migration Plan"

// ChunkResult is the tagged outcome of processing one group
type ChunkResult struct {
	// Index is the 1-based position of the group in the batch
	Index int
	Text  string
	Err   error
}

// OK reports whether the chunk was generated successfully
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// Render converts the result to plan text, embedding an error marker for failures
func (r ChunkResult) Render() string {
	if r.Err != nil {
		return fmt.Sprintf("Error processing chunk %d: %v", r.Index, r.Err)
	}
	return r.Text
}

// EnsureTitle prepends PlanTitle unless the plan's first line already is the title
func EnsureTitle(plan string) string {
	firstLine, _, _ := strings.Cut(plan, "\n")
	if strings.TrimRight(firstLine, " \t\r") == PlanTitle {
		return plan
	}
	return PlanTitle + "\n\n" + plan
}
