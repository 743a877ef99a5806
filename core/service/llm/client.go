// Package llm wraps the chat-completion API used by the evaluator.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is a thin wrapper around the OpenAI-compatible chat completion
// endpoint, configured once from AI_API_BASE_URL/AI_API_MODEL/AI_API_KEY.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

type ClientConfig struct {
	APIKey      string
	BaseURL     string // AI_API_BASE_URL; empty uses the OpenAI default
	Model       string
	Temperature float64
}

func NewClientWithConfig(cfg ClientConfig) *Client {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	return &Client{
		client:      openai.NewClientWithConfig(oaiCfg),
		model:       cfg.Model,
		temperature: float32(temperature),
	}
}

// CompleteWithSystem issues a single-turn system+user chat completion.
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON is CompleteWithSystem with the response format forced to a
// JSON object, used by the evaluator so malformed fencing is less likely.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "{}", nil
	}
	return resp.Choices[0].Message.Content, nil
}
