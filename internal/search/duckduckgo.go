// ABOUTME: DuckDuckGo Instant Answer client used for best-effort research enrichment
// ABOUTME: Performs a single request per call; callers own retries and pacing
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the DuckDuckGo Instant Answer API
const DefaultEndpoint = "https://api.duckduckgo.com/"

// ErrNoResults is returned when a query produced no usable text
var ErrNoResults = errors.New("search returned no results")

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 1 << 20

// DuckDuckGo queries the Instant Answer API
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxTopics  int
}

// Option configures the DuckDuckGo client
type Option func(*DuckDuckGo)

// WithEndpoint overrides the API endpoint
func WithEndpoint(endpoint string) Option {
	return func(d *DuckDuckGo) {
		if endpoint != "" {
			d.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(c *http.Client) Option {
	return func(d *DuckDuckGo) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// NewDuckDuckGo creates a search client
func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  "migration-planner/1.0",
		maxTopics:  5,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	Answer        string         `json:"Answer"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

// Search runs one query and returns a plain-text digest of the answer
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	var answer instantAnswer
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&answer); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	digest := d.digest(answer)
	if digest == "" {
		return "", ErrNoResults
	}
	return digest, nil
}

// digest flattens an answer into the abstract followed by related topic lines
func (d *DuckDuckGo) digest(a instantAnswer) string {
	var parts []string
	if a.AbstractText != "" {
		parts = append(parts, a.AbstractText)
	} else if a.Answer != "" {
		parts = append(parts, a.Answer)
	}

	for _, topic := range flatten(a.RelatedTopics) {
		if len(parts) > d.maxTopics {
			break
		}
		if topic.Text != "" {
			parts = append(parts, "- "+topic.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func flatten(topics []relatedTopic) []relatedTopic {
	var out []relatedTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flatten(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
