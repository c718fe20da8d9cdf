package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemGuard = `You are a careful assistant inside an HR data system.
Output exactly what the user asks for and nothing else.`

type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewOpenAIClient(apiKey, model, baseURL string, log *zap.Logger) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ai: openai api key is not set")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log,
	}, nil
}

func (c *OpenAIClient) Invoke(ctx context.Context, prompt string) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemGuard},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0,
	})
	if err != nil {
		c.log.Warn("openai call failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.log.Warn("openai returned no choices", zap.String("model", c.model))
		return "", ErrEmptyReply
	}

	raw := resp.Choices[0].Message.Content
	c.log.Debug("openai raw reply", zap.String("model", c.model), zap.String("reply", short(raw)))

	return raw, nil
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
