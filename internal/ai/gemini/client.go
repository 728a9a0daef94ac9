package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"innovation-backend/internal/ai"
	"innovation-backend/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

// Client implements ai.Client using the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Options configures the Gemini client. BaseURL overrides the API endpoint.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient constructs a Gemini-backed collaborator.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Invoke sends one GenerateContent request constrained to schema.
func (c *Client) Invoke(ctx context.Context, prompt string, schema map[string]any) (ai.Result, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
	if schema != nil {
		cfg.ResponseJsonSchema = schema
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return ai.Result{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if u := resp.UsageMetadata; u != nil {
		telemetry.Info("ai.usage", map[string]any{
			"provider":          "gemini",
			"model":             c.model,
			"prompt_tokens":     u.PromptTokenCount,
			"completion_tokens": u.CandidatesTokenCount,
			"total_tokens":      u.TotalTokenCount,
		})
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ai.Result{}, fmt.Errorf("gemini response empty content")
	}
	return ai.ResultFromText(text), nil
}

var _ ai.Client = (*Client)(nil)
