package analyzer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel backs the analyzer with the Gemini API. The API key is read
// from the environment by the client.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates the client once; per-call setup would waste the
// connection on every cycle.
func NewGeminiModel(ctx context.Context, modelName string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiModel{client: client, model: modelName}, nil
}

func (g *GeminiModel) Name() string { return g.model }

func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// UnavailableModel is used when no generative backend could be configured;
// every invocation fails, so assessments degrade to UNKNOWN.
type UnavailableModel struct {
	Reason error
}

func (u *UnavailableModel) Name() string { return "unavailable" }

func (u *UnavailableModel) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("no model configured: %w", u.Reason)
}
