// Package openai is an alternate oracle provider backed by the OpenAI
// chat-completions API. Selected with oracle.provider: openai.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bryanwahyu/clinassist/internal/domain/analysis"
)

const maxTokens = 1024

const systemPrompt = "You are an AI health assistant. Provide clear, accurate, and helpful medical information. " +
	"Always include a disclaimer when appropriate. Focus on evidence-based recommendations."

type Client struct {
	api   *openai.Client
	model string
	log   *zap.SugaredLogger
}

func NewClient(apiKey, model string, log *zap.SugaredLogger) *Client {
	var api *openai.Client
	if apiKey != "" {
		api = openai.NewClient(apiKey)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: api, model: model, log: log}
}

// Complete implements analysis.Oracle. Transport faults map onto the
// same taxonomy as the default provider, so the orchestrator degrades
// identically regardless of which backend is configured.
func (c *Client) Complete(ctx context.Context, promptText string) (string, error) {
	if c.api == nil {
		c.log.Errorw("openai api key missing, refusing to call endpoint")
		return "", analysis.ErrNotConfigured
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: promptText},
		},
	})
	if err != nil {
		c.log.Warnw("openai completion failed", "error", err)
		return "", fmt.Errorf("%w: %v", analysis.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", analysis.ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
