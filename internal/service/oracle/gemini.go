package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/zhouzirui/shopbot/backend/internal/config"
)

// GeminiOracle completes prompts with the Gemini API.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGeminiOracle creates a Gemini client for cfg.
func NewGeminiOracle(ctx context.Context, cfg config.GeminiConfig) (*GeminiOracle, error) {
	return newGeminiOracle(ctx, cfg, genai.HTTPOptions{})
}

func newGeminiOracle(ctx context.Context, cfg config.GeminiConfig, httpOptions genai.HTTPOptions) (*GeminiOracle, error) {
	if !cfg.Enabled() {
		return nil, errors.New("oracle: GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiOracle{client: client, model: cfg.Model}, nil
}

// Complete implements Oracle.
func (g *GeminiOracle) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
