// ABOUTME: OpenAI-compatible chat client used as the plan generation backend
// ABOUTME: Talks to OpenRouter by default; owns request retries so callers never retry
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/migration-planner/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the default chat model routed through OpenRouter
	DefaultModel = "anthropic/claude-opus-4"
	// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// ClientConfig holds configuration for the chat client
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds each attempt; zero is rejected so no call waits forever
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration for the given API key
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:      apiKey,
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.7,
		MaxTokens:   4000,
		Timeout:     120 * time.Second,
		MaxRetries:  2,
		RetryDelay:  2 * time.Second,
	}
}

// Client wraps the go-openai client with per-attempt timeouts and retry logic
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a chat client from config
func NewClient(config *ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", config.Timeout)
	}

	oaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oaiConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:      openai.NewClientWithConfig(oaiConfig),
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		timeout:     config.Timeout,
		maxRetries:  config.MaxRetries,
		retryDelay:  config.RetryDelay,
	}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Generate sends one system + user exchange and returns the assistant's reply
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("generation cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(util.RetryDelay(c.retryDelay, attempt, 0)):
			}
		}

		content, err := c.complete(ctx, req)
		if err == nil {
			return content, nil
		}

		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	return "", fmt.Errorf("generation failed: %w", lastErr)
}

// complete performs a single bounded chat completion call
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errEmptyContent
	}
	return content, nil
}

var (
	errNoChoices    = errors.New("no completion choices returned")
	errEmptyContent = errors.New("empty completion content")
)

// retryable reports whether another attempt could succeed.
// Client-side rejections (bad key, bad request) are permanent; throttling and 5xx are not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return true
		case apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500:
			return false
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return true
}
