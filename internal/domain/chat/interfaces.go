package chat

import "context"

// Embedder converts a query into a fixed-dimension vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the top-k knowledge base matches for an embedding,
// ordered by similarity descending with deterministic tie-breaking. A zero
// match result is a successful empty result, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error)
}

// Generator produces an answer for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// InteractionLog appends exchange records to the log sink.
type InteractionLog interface {
	Append(ctx context.Context, rec InteractionRecord) error
}

// TrendingStore tracks how often questions are asked.
type TrendingStore interface {
	Increment(ctx context.Context, canonical, display string) error
	Top(ctx context.Context, limit int) ([]TrendingQuestion, error)
}

// TokenCounter measures text length in model tokens.
type TokenCounter interface {
	Count(text string) int
}
