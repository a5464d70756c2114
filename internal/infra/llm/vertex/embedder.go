package vertex

import (
	"context"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictInstance struct {
	Content string `json:"content"`
}

type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// Embedder calls a Vertex AI text embedding model.
type Embedder struct {
	client *Client
	model  string
}

// NewEmbedder constructs the adapter.
func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

// EmbedQuery returns the embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var resp predictResponse
	err := e.client.post(ctx, e.client.modelEndpoint(e.model, "predict"), predictRequest{
		Instances: []predictInstance{{Content: text}},
	}, &resp)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEmbeddingUnavailable, "vertex embedding request failed", err)
	}
	if len(resp.Predictions) == 0 || len(resp.Predictions[0].Embeddings.Values) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeEmbeddingUnavailable, "vertex embedding response empty", nil)
	}
	vector := make([]float32, len(resp.Predictions[0].Embeddings.Values))
	copy(vector, resp.Predictions[0].Embeddings.Values)
	return vector, nil
}

var _ chat.Embedder = (*Embedder)(nil)
