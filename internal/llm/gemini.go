package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient is the Generator backed by the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client authenticated with apiKey. An empty
// apiKey yields ErrNotConfigured so callers can fall back to Disabled.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// New returns a GeminiClient when apiKey is set and Disabled otherwise.
func New(ctx context.Context, apiKey, model string) (Generator, error) {
	g, err := NewGeminiClient(ctx, apiKey, model)
	if err == ErrNotConfigured {
		return Disabled{}, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Generate sends a single-turn text prompt and returns the trimmed completion.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Model returns the configured model name.
func (g *GeminiClient) Model() string {
	return g.model
}
