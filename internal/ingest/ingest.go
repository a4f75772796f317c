// ABOUTME: Validation and decoding of uploaded webMethods source files
// ABOUTME: Shared by the HTTP surface, the MCP tools, and the CLI
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/harper/migration-planner/internal/models"
)

// AllowedExtensions are the source file types accepted for migration
var AllowedExtensions = []string{".html", ".txt"}

// ValidationError describes why a file was rejected
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason)
}

// Decode checks a file's name and bytes and returns it as a document
func Decode(filename string, data []byte) (models.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return models.Document{}, &ValidationError{Filename: "(unnamed)", Reason: "filename is required"}
	}
	if !HasAllowedExtension(filename) {
		return models.Document{}, &ValidationError{
			Filename: filename,
			Reason:   "invalid file type. Only .html and .txt files are allowed.",
		}
	}
	if !utf8.Valid(data) {
		return models.Document{}, &ValidationError{
			Filename: filename,
			Reason:   "unable to decode file. Please ensure it's a valid UTF-8 text file.",
		}
	}
	if !isText(data) {
		return models.Document{}, &ValidationError{
			Filename: filename,
			Reason:   fmt.Sprintf("content looks like %s, not text", mimetype.Detect(data).String()),
		}
	}

	return models.Document{Name: filename, Content: string(data)}, nil
}

// ReadFile loads and validates a document from disk
func ReadFile(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(filepath.Base(path), data)
}

// HasAllowedExtension reports whether filename ends in an accepted extension, ignoring case
func HasAllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// isText reports whether the sniffed type is text/plain or a descendant of it (html, xml, json...)
func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}
