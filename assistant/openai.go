package assistant

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"go-cropadvisor/config"
)

var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// openaiAssistant 也适用于 OpenRouter 等兼容接口
type openaiAssistant struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func newOpenAIAssistant(cfg config.AssistantConfig) (*openaiAssistant, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openaiAssistant{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     resolveModel(cfg.Model, "gpt-4o-mini", openaiModels),
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (a *openaiAssistant) Ask(ctx context.Context, question string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		MaxCompletionTokens: a.maxTokens,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &UnavailableError{Err: errors.New("no choices in openai response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Err: err}
	}
	return &UnavailableError{Err: err}
}
