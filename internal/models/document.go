// ABOUTME: Document and Group represent uploaded source files and budgeted batches of them
// ABOUTME: Groups are built by the chunker and consumed once by the chunk processor
package models

// TruncationMarker is appended to a document's content when it is cut to fit a group budget
const TruncationMarker = "\n\n[Content truncated due to length...]"

// Document is one uploaded webMethods source file
type Document struct {
	Name    string `json:"filename"`
	Content string `json:"content"`
}

// Group is an ordered batch of documents processed by a single generation call
type Group struct {
	Documents []Document `json:"documents"`
	// Truncated is set when the group holds a single oversized document that was cut
	Truncated bool `json:"truncated,omitempty"`
}

// Names returns the document names in group order
func (g Group) Names() []string {
	names := make([]string, len(g.Documents))
	for i, doc := range g.Documents {
		names[i] = doc.Name
	}
	return names
}
