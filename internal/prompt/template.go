// ABOUTME: Prompt template loading and rendering for chunk analysis prompts
// ABOUTME: Reads prompt_template from a properties or YAML file and renders it with sprig funcs
package prompt

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/harper/migration-planner/internal/models"
)

// TemplateKey is the only field read from a prompt file
const TemplateKey = "prompt_template"

// ErrEmptyTemplate is returned when a prompt file has no prompt_template value
var ErrEmptyTemplate = errors.New("prompt template is empty")

//go:embed templates/migration_prompt.properties
var defaultProperties string

// Data is what a chunk prompt template can reference
type Data struct {
	// Context is the research summary, already clipped by the caller
	Context string
	Files   []models.Document
}

// Template is a parsed prompt skeleton
type Template struct {
	source string
	tmpl   *template.Template
}

// Default returns the built-in migration prompt
func Default() *Template {
	raw, err := parseProperties(defaultProperties)
	if err != nil {
		panic(fmt.Sprintf("built-in prompt: %v", err))
	}
	t, err := New(raw)
	if err != nil {
		panic(fmt.Sprintf("built-in prompt: %v", err))
	}
	return t
}

// Load reads a prompt file; .yaml/.yml files are parsed as YAML, anything else as properties
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file: %w", err)
	}

	var raw string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = parseYAML(data)
	default:
		raw, err = parseProperties(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(raw)
}

// New parses a raw template string
func New(raw string) (*Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyTemplate
	}
	tmpl, err := template.New(TemplateKey).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{source: raw, tmpl: tmpl}, nil
}

// Source returns the unparsed template text
func (t *Template) Source() string {
	return t.source
}

// Render executes the template against data.
// Any file whose content the template left out is appended under a Files to Analyze
// heading, so a custom template can never drop documents from the prompt.
func (t *Template) Render(data Data) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	out := buf.String()
	var missing []models.Document
	for _, f := range data.Files {
		if !strings.Contains(out, f.Content) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	return strings.TrimRight(out, "\n") + "\n\n## Files to Analyze\n" + FileSection(missing), nil
}

// FileSection serializes documents as "=== File: name ===" blocks separated by blank lines
func FileSection(files []models.Document) string {
	blocks := make([]string, len(files))
	for i, f := range files {
		blocks[i] = "=== File: " + f.Name + " ===\n" + f.Content
	}
	return strings.Join(blocks, "\n\n")
}

// parseProperties extracts prompt_template from properties text.
// Comments and blank lines are skipped until the key is found; every later line belongs to the value.
func parseProperties(content string) (string, error) {
	var sb strings.Builder
	inValue := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if inValue {
			sb.WriteString("\n")
			sb.WriteString(line)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		if value, ok := strings.CutPrefix(trimmed, TemplateKey+"="); ok {
			sb.WriteString(value)
			inValue = true
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	raw := strings.TrimSpace(sb.String())
	if raw == "" {
		return "", ErrEmptyTemplate
	}
	return raw, nil
}

func parseYAML(data []byte) (string, error) {
	var doc struct {
		PromptTemplate string `yaml:"prompt_template"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing yaml: %w", err)
	}
	raw := strings.TrimSpace(doc.PromptTemplate)
	if raw == "" {
		return "", ErrEmptyTemplate
	}
	return raw, nil
}
