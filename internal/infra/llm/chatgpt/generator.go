package chatgpt

import (
	"context"
	"strings"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// Generator adapts the chat completions endpoint to the chat domain contract.
type Generator struct {
	client      *Client
	model       string
	temperature float32
}

// NewGenerator constructs the adapter.
func NewGenerator(client *Client, model string, temperature float32) *Generator {
	return &Generator{client: client, model: strings.TrimSpace(model), temperature: temperature}
}

// Generate produces an answer for the assembled prompt.
func (g *Generator) Generate(ctx context.Context, prompt chat.Prompt) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model: g.model,
		Messages: []Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeGenerationUnavailable, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Wrap(apperrors.CodeGenerationUnavailable, "chat completion returned no choices", nil)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", apperrors.Wrap(apperrors.CodeGenerationUnavailable, "chat completion response empty", nil)
	}
	return answer, nil
}

var _ chat.Generator = (*Generator)(nil)
