package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ai: gemini api key is not set")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model, log: log}, nil
}

func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemGuard, genai.RoleUser),
	})
	if err != nil {
		c.log.Warn("gemini call failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyReply
	}
	c.log.Debug("gemini raw reply", zap.String("model", c.model), zap.String("reply", short(raw)))

	return raw, nil
}
