// ABOUTME: Chunker packs documents into ordered groups that fit a character budget
// ABOUTME: A document larger than the budget is truncated and emitted as its own group
package core

import (
	"github.com/harper/migration-planner/internal/models"
)

// Chunker partitions a document batch into budgeted groups
type Chunker struct {
	budget        int
	truncateChars int
}

// NewChunker creates a Chunker. Oversized documents are cut to min(budget, truncateChars);
// a non-positive truncateChars means the budget alone decides.
func NewChunker(budget, truncateChars int) *Chunker {
	return &Chunker{budget: budget, truncateChars: truncateChars}
}

// Chunk groups documents in input order.
//
// A document whose size is strictly greater than the budget is truncated and emitted
// as a singleton group as soon as it arrives. The pending running group is not closed,
// so it keeps accumulating and lands after the singleton.
func (c *Chunker) Chunk(docs []models.Document) []models.Group {
	var groups []models.Group
	var current []models.Document
	currentSize := 0

	for _, doc := range docs {
		size := CharCount(doc.Content)

		if size > c.budget {
			groups = append(groups, models.Group{
				Documents: []models.Document{c.truncate(doc)},
				Truncated: true,
			})
			continue
		}

		if currentSize+size > c.budget && len(current) > 0 {
			groups = append(groups, models.Group{Documents: current})
			current = nil
			currentSize = 0
		}

		current = append(current, doc)
		currentSize += size
	}

	if len(current) > 0 {
		groups = append(groups, models.Group{Documents: current})
	}

	return groups
}

func (c *Chunker) truncate(doc models.Document) models.Document {
	limit := c.budget
	if c.truncateChars > 0 && c.truncateChars < limit {
		limit = c.truncateChars
	}
	return models.Document{
		Name:    doc.Name,
		Content: TruncateChars(doc.Content, limit) + models.TruncationMarker,
	}
}
