package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-1.5-flash"
	// DefaultTemperature keeps categorization and summaries stable run to run.
	DefaultTemperature = float32(0.3)
	// DefaultMaxTokens bounds a single response.
	DefaultMaxTokens = int32(300)
	// probeText is the payload sent by Probe.
	probeText = "ping"
)

// Options configures a Client.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// DefaultOptions returns the options used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Client talks to the Gemini API. It is safe for concurrent use.
type Client struct {
	gClient *genai.Client
	options Options
}

// NewClient creates a Gemini client. An empty API key is an error; callers
// that want to run without AI should not construct a client at all.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	defaults := DefaultOptions()
	if opts.Model == "" {
		opts.Model = defaults.Model
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaults.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}

	gClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{gClient: gClient, options: opts}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.options.Model
}

func (c *Client) model() *genai.GenerativeModel {
	model := c.gClient.GenerativeModel(c.options.Model)
	model.SetTemperature(c.options.Temperature)
	model.SetMaxOutputTokens(c.options.MaxTokens)
	return model
}

// GenerateText sends prompt and returns the concatenated text parts of the
// first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	resp, err := c.model().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	return extractText(resp)
}

// GenerateJSON is GenerateText with a JSON response type. Markdown code
// fences around the payload are removed.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	model := c.model()
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Probe is a lightweight availability check. It counts tokens for a tiny
// payload, which exercises credentials and model name without generating.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := c.model().CountTokens(ctx, genai.Text(probeText)); err != nil {
		return fmt.Errorf("gemini probe failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.gClient != nil {
		return c.gClient.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// CleanJSONBlock removes markdown code fences around a JSON payload.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
