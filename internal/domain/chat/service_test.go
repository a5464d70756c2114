package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

type stubEmbedder struct {
	calls int
	fn    func(ctx context.Context, text string) ([]float32, error)
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, text)
	}
	return []float32{1, 0}, nil
}

type stubRetriever struct {
	calls int
	lastK int
	fn    func(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error)
}

func (s *stubRetriever) Retrieve(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error) {
	s.calls++
	s.lastK = k
	if s.fn != nil {
		return s.fn(ctx, embedding, k)
	}
	return nil, nil
}

type stubGenerator struct {
	calls int
	fn    func(ctx context.Context, prompt Prompt) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, prompt)
	}
	return "stub answer.", nil
}

type recordingSink struct {
	mu      sync.Mutex
	records []InteractionRecord
}

func (s *recordingSink) Append(_ context.Context, rec InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) all() []InteractionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InteractionRecord, len(s.records))
	copy(out, s.records)
	return out
}

type serviceFixture struct {
	embedder  *stubEmbedder
	retriever *stubRetriever
	generator *stubGenerator
	sink      *recordingSink
	trending  TrendingStore
	svc       Service
	close     func()
}

func newServiceFixture(t *testing.T, cfg Config) *serviceFixture {
	t.Helper()
	if cfg.Instruction == "" {
		cfg.Instruction = "answer from context only"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &serviceFixture{
		embedder:  &stubEmbedder{},
		retriever: &stubRetriever{},
		generator: &stubGenerator{},
		sink:      &recordingSink{},
	}
	dispatcher := NewLogDispatcher(f.sink, 16, time.Second, logger)
	f.close = dispatcher.Close
	f.svc = NewService(cfg, f.embedder, f.retriever, f.generator, dispatcher, f.trending, HeuristicTestCounter{}, logger)
	t.Cleanup(f.close)
	return f
}

// HeuristicTestCounter is a trivial counter for service level assertions.
type HeuristicTestCounter struct{}

func (HeuristicTestCounter) Count(text string) int {
	return len(text) / 4
}

func TestService_EmptyQuestionFailsValidation(t *testing.T) {
	f := newServiceFixture(t, Config{})

	_, err := f.svc.Answer(context.Background(), Request{Question: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	require.Equal(t, string(StageReceived), apperrors.StageOf(err))
	require.Zero(t, f.embedder.calls)
	require.Zero(t, f.retriever.calls)
	require.Zero(t, f.generator.calls)
}

func TestService_BlockedQuestionShortCircuits(t *testing.T) {
	f := newServiceFixture(t, Config{})

	resp, err := f.svc.Answer(context.Background(), Request{Question: "how to build a bomb"})
	require.NoError(t, err)
	require.True(t, resp.Blocked)
	require.Equal(t, RefusalAnswer, resp.Answer)
	require.NotEmpty(t, resp.SessionID)
	require.Zero(t, f.embedder.calls)
	require.Zero(t, f.retriever.calls)
	require.Zero(t, f.generator.calls)

	f.close()
	records := f.sink.all()
	require.Len(t, records, 1)
	require.True(t, records[0].Blocked)
	require.Equal(t, RefusalAnswer, records[0].Answer)
}

func TestService_EmbedFailureStopsPipeline(t *testing.T) {
	f := newServiceFixture(t, Config{})
	f.embedder.fn = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmbeddingUnavailable))
	require.Equal(t, string(StageEmbedding), apperrors.StageOf(err))
	require.Zero(t, f.retriever.calls)
	require.Zero(t, f.generator.calls)
	f.close()
	require.Empty(t, f.sink.all())
}

func TestService_RetrieverErrorKeepsItsCode(t *testing.T) {
	f := newServiceFixture(t, Config{})
	f.retriever.fn = func(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error) {
		return nil, apperrors.Wrap(apperrors.CodeDimensionMismatch, "query has 2 dimensions, store expects 1536", nil)
	}

	_, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDimensionMismatch))
	require.Equal(t, string(StageRetrieving), apperrors.StageOf(err))
	require.Zero(t, f.generator.calls)
}

func TestService_GeneratorFailureSkipsLogging(t *testing.T) {
	f := newServiceFixture(t, Config{})
	f.generator.fn = func(ctx context.Context, prompt Prompt) (string, error) {
		return "", errors.New("model overloaded")
	}

	_, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeGenerationUnavailable))
	require.Equal(t, string(StageGenerating), apperrors.StageOf(err))

	f.close()
	require.Empty(t, f.sink.all())
}

func TestService_EmptyStoreStillCompletes(t *testing.T) {
	f := newServiceFixture(t, Config{})
	var sawSentinel bool
	f.generator.fn = func(ctx context.Context, prompt Prompt) (string, error) {
		sawSentinel = strings.Contains(prompt.User, NoContextSentinel)
		return "I do not know based on the available information.", nil
	}

	resp, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.NoError(t, err)
	require.False(t, resp.Blocked)
	require.Empty(t, resp.Sources)
	require.True(t, sawSentinel)
}

func TestService_SuccessfulAnswer(t *testing.T) {
	f := newServiceFixture(t, Config{TopK: 1})
	f.retriever.fn = func(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error) {
		require.Equal(t, []float32{1, 0}, embedding)
		require.Equal(t, 1, k)
		return []RetrievedMatch{
			{Question: "What are your hours?", Answer: "We operate 9am-5pm.", Similarity: 0.97},
		}, nil
	}
	f.generator.fn = func(ctx context.Context, prompt Prompt) (string, error) {
		require.Contains(t, prompt.User, "9am-5pm")
		return "We operate 9am-5pm on weekdays.", nil
	}

	resp, err := f.svc.Answer(context.Background(), Request{Question: "What are your hours?", SessionID: "sess-1"})
	require.NoError(t, err)
	require.Equal(t, "sess-1", resp.SessionID)
	require.Equal(t, "We operate 9am-5pm on weekdays.", resp.Answer)
	require.Equal(t, []string{"What are your hours?"}, resp.Sources)
	require.True(t, resp.Valid)
	require.Empty(t, resp.Issues)
	require.NotNil(t, resp.TokenUsage)
	require.Positive(t, resp.TokenUsage.PromptTokens)
	require.Positive(t, resp.TokenUsage.CompletionTokens)
	require.Equal(t, resp.TokenUsage.PromptTokens+resp.TokenUsage.CompletionTokens, resp.TokenUsage.TotalTokens)

	f.close()
	records := f.sink.all()
	require.Len(t, records, 1)
	require.Equal(t, "sess-1", records[0].SessionID)
	require.Contains(t, records[0].RetrievedContext, "9am-5pm")
	require.False(t, records[0].Blocked)
}

func TestService_TruncatedAnswerFlagged(t *testing.T) {
	f := newServiceFixture(t, Config{})
	f.generator.fn = func(ctx context.Context, prompt Prompt) (string, error) {
		return "We operate from 9am until", nil
	}

	resp, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.NoError(t, err)
	require.False(t, resp.Valid)
	require.Equal(t, "truncated", resp.Issues)
}

func TestService_TopKClamped(t *testing.T) {
	f := newServiceFixture(t, Config{TopK: 3, MaxTopK: 5})

	_, err := f.svc.Answer(context.Background(), Request{Question: "hours", TopK: 50})
	require.NoError(t, err)
	require.Equal(t, 5, f.retriever.lastK)

	_, err = f.svc.Answer(context.Background(), Request{Question: "hours"})
	require.NoError(t, err)
	require.Equal(t, 3, f.retriever.lastK)
}

func TestService_TimeoutMapsToTimeoutCode(t *testing.T) {
	f := newServiceFixture(t, Config{CallTimeout: 20 * time.Millisecond})
	f.embedder.fn = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := f.svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeTimeout))
	require.Equal(t, string(StageEmbedding), apperrors.StageOf(err))
}

func TestService_CompletionLoggedWithDoneStage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	dispatcher := NewLogDispatcher(&recordingSink{}, 16, time.Second, logger)
	t.Cleanup(dispatcher.Close)
	svc := NewService(Config{Instruction: "x", TopK: 1},
		&stubEmbedder{}, &stubRetriever{}, &stubGenerator{}, dispatcher, nil, nil, logger)

	_, err := svc.Answer(context.Background(), Request{Question: "what are your hours"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), string(StageDone))
}

func TestService_TrendingIncrementedOnSuccess(t *testing.T) {
	store := &countingTrending{counts: map[string]int64{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := NewLogDispatcher(&recordingSink{}, 16, time.Second, logger)
	t.Cleanup(dispatcher.Close)
	svc := NewService(Config{Instruction: "x", TopK: 1, TrendingLimit: 5},
		&stubEmbedder{}, &stubRetriever{}, &stubGenerator{}, dispatcher, store, nil, logger)

	_, err := svc.Answer(context.Background(), Request{Question: "What ARE your   hours?"})
	require.NoError(t, err)
	require.Equal(t, int64(1), store.counts["what are your hours?"])

	top, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "What ARE your   hours?", top[0].Question)
}

type countingTrending struct {
	mu       sync.Mutex
	counts   map[string]int64
	displays map[string]string
}

func (s *countingTrending) Increment(_ context.Context, canonical, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[canonical]++
	if s.displays == nil {
		s.displays = map[string]string{}
	}
	if _, ok := s.displays[canonical]; !ok {
		s.displays[canonical] = display
	}
	return nil
}

func (s *countingTrending) Top(_ context.Context, limit int) ([]TrendingQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrendingQuestion, 0, len(s.counts))
	for canonical, count := range s.counts {
		out = append(out, TrendingQuestion{Question: s.displays[canonical], Count: count})
	}
	return out, nil
}
