package knowledge

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator using Gemini text generation. Each
// call uses a fresh context window so earlier generations cannot leak into
// later ones.
type GeminiGenerator struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiGenerator(ctx context.Context, apiKey string, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{
		client:        client,
		model:         modelName,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, id string, meta Metadata, depContext map[string]string) (string, error) {
	var prompt string
	if len(meta.CycleMembers) > 0 {
		prompt = g.promptBuilder.BuildCycleOverviewPrompt(meta, depContext)
	} else {
		prompt = g.promptBuilder.BuildModulePrompt(meta, depContext)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation failed for %s: %w", id, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty generation response for %s", id)
	}
	return text, nil
}
