package translate

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini translates through the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
	target string
	stats  *Stats
}

func NewGemini(ctx context.Context, apiKey, model, target string, stats *Stats) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: model, target: target, stats: stats}, nil
}

func (g *Gemini) Translate(ctx context.Context, text string) (string, error) {
	start := time.Now()
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(buildPrompt(g.target, text), genai.RoleUser),
	}, nil)
	g.stats.observe(start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return res.Text(), nil
}
