package vertex

import (
	"context"
	"strings"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generator calls a Gemini model on Vertex AI.
type Generator struct {
	client      *Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGenerator constructs the adapter.
func NewGenerator(client *Client, model string, temperature float32, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 768
	}
	return &Generator{client: client, model: model, temperature: temperature, maxTokens: maxTokens}
}

// Generate produces an answer for the assembled prompt. When the model
// returns nothing or an answer ending mid-sentence, the call is repeated once
// with a larger output budget; candidates may be empty on safety blocks, so
// text extraction never panics.
func (g *Generator) Generate(ctx context.Context, prompt chat.Prompt) (string, error) {
	answer, err := g.generateOnce(ctx, prompt, g.maxTokens)
	if err != nil {
		return "", err
	}
	if looksComplete(answer) {
		return answer, nil
	}
	retried, err := g.generateOnce(ctx, prompt, g.maxTokens+256)
	if err == nil && retried != "" {
		answer = retried
	}
	if answer == "" {
		return "", apperrors.Wrap(apperrors.CodeGenerationUnavailable, "gemini returned no text", nil)
	}
	return answer, nil
}

func (g *Generator) generateOnce(ctx context.Context, prompt chat.Prompt, maxTokens int) (string, error) {
	var resp generateResponse
	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt.User}}},
		},
		SystemInstruction: &content{Parts: []part{{Text: prompt.System}}},
		GenerationConfig: &generationConfig{
			Temperature:     g.temperature,
			TopP:            0.95,
			MaxOutputTokens: maxTokens,
		},
	}
	err := g.client.post(ctx, g.client.modelEndpoint(g.model, "generateContent"), req, &resp)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeGenerationUnavailable, "gemini request failed", err)
	}
	return extractText(resp), nil
}

func extractText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func looksComplete(answer string) bool {
	if answer == "" {
		return false
	}
	switch answer[len(answer)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

var _ chat.Generator = (*Generator)(nil)
