package chatgpt

import (
	"context"
	"strings"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// Embedder adapts the embeddings endpoint to the chat domain contract.
type Embedder struct {
	client *Client
	model  string
}

// NewEmbedder constructs the adapter.
func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: strings.TrimSpace(model)}
}

// EmbedQuery returns the embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbedding(ctx, EmbeddingRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEmbeddingUnavailable, "embedding request failed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeEmbeddingUnavailable, "embedding response empty", nil)
	}
	vector := make([]float32, len(resp.Data[0].Embedding))
	copy(vector, resp.Data[0].Embedding)
	return vector, nil
}

var _ chat.Embedder = (*Embedder)(nil)
