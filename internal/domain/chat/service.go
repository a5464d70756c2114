package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/snow-agent/pkg/errors"
	"github.com/yanqian/snow-agent/pkg/metrics"
)

// Config holds runtime knobs for the chat pipeline.
type Config struct {
	Instruction      string
	TopK             int
	MaxTopK          int
	MaxContextTokens int
	CallTimeout      time.Duration
	TrendingLimit    int
}

// Service exposes the chat pipeline.
type Service interface {
	Answer(ctx context.Context, req Request) (Response, error)
	Trending(ctx context.Context) ([]TrendingQuestion, error)
}

type service struct {
	cfg        Config
	embedder   Embedder
	retriever  Retriever
	generator  Generator
	dispatcher *LogDispatcher
	trending   TrendingStore
	counter    TokenCounter
	logger     *slog.Logger
}

// NewService wires up the chat domain.
func NewService(cfg Config, embedder Embedder, retriever Retriever, generator Generator, dispatcher *LogDispatcher, trending TrendingStore, counter TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:        cfg,
		embedder:   embedder,
		retriever:  retriever,
		generator:  generator,
		dispatcher: dispatcher,
		trending:   trending,
		counter:    counter,
		logger:     logger.With("component", "chat.service"),
	}
}

// Answer runs the pipeline for one request. Stages execute in order; the
// first failing stage aborts the request with its stage name attached. The
// logging stage is fire-and-forget and never reached when generation fails.
func (s *service) Answer(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, apperrors.WrapStage(apperrors.CodeValidation, string(StageReceived), "question cannot be empty", nil)
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if gate := GuardQuestion(question); !gate.Allowed {
		s.logger.Info("question blocked by guard", "session_id", sessionID, "reason", gate.Reason)
		resp := Response{
			SessionID: sessionID,
			Answer:    RefusalAnswer,
			Blocked:   true,
			Valid:     true,
			LatencyMs: time.Since(start).Milliseconds(),
		}
		s.dispatcher.Dispatch(InteractionRecord{
			SessionID: sessionID,
			Question:  question,
			Answer:    RefusalAnswer,
			Blocked:   true,
		})
		return resp, nil
	}

	embedding, err := s.embed(ctx, question)
	if err != nil {
		return Response{}, err
	}

	matches, err := s.retrieve(ctx, embedding, s.resolveTopK(req.TopK))
	if err != nil {
		return Response{}, err
	}

	contextBlock := BuildContext(matches, s.cfg.MaxContextTokens, s.counter)
	prompt := BuildPrompt(s.cfg.Instruction, contextBlock, question)
	s.logger.Debug("context assembled",
		"stage", string(StageBuildingContext), "session_id", sessionID, "matches", len(matches))

	answer, err := s.generate(ctx, prompt)
	if err != nil {
		return Response{}, err
	}

	issues := AnswerIssues(answer)

	s.dispatcher.Dispatch(InteractionRecord{
		SessionID:        sessionID,
		Question:         question,
		RetrievedContext: contextBlock,
		Answer:           answer,
	})
	if s.trending != nil {
		if err := s.trending.Increment(ctx, NormalizeQuestion(question), question); err != nil {
			s.logger.Warn("trending increment failed", "error", err)
		}
	}

	sources := make([]string, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, match.Question)
	}

	resp := Response{
		SessionID: sessionID,
		Answer:    answer,
		Sources:   sources,
		Valid:     issues == "",
		Issues:    issues,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if s.counter != nil {
		usage := metrics.TokenUsage{
			PromptTokens:     s.counter.Count(prompt.Text()),
			CompletionTokens: s.counter.Count(answer),
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		if !usage.IsZero() {
			resp.TokenUsage = &usage
		}
	}
	s.logger.Info("question answered",
		"stage", string(StageDone), "session_id", sessionID, "sources", len(sources), "latency_ms", resp.LatencyMs)
	return resp, nil
}

// Trending returns the most frequently asked questions.
func (s *service) Trending(ctx context.Context) ([]TrendingQuestion, error) {
	if s.trending == nil {
		return nil, nil
	}
	items, err := s.trending.Top(ctx, s.cfg.TrendingLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "failed to load trending questions", err)
	}
	return items, nil
}

func (s *service) embed(ctx context.Context, question string) ([]float32, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	embedding, err := s.embedder.EmbedQuery(callCtx, question)
	if err != nil {
		return nil, stageError(StageEmbedding, apperrors.CodeEmbeddingUnavailable, "query embedding failed", err)
	}
	if len(embedding) == 0 {
		return nil, apperrors.WrapStage(apperrors.CodeEmbeddingUnavailable, string(StageEmbedding), "embedder returned no vector", nil)
	}
	return embedding, nil
}

func (s *service) retrieve(ctx context.Context, embedding []float32, k int) ([]RetrievedMatch, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	matches, err := s.retriever.Retrieve(callCtx, embedding, k)
	if err != nil {
		return nil, stageError(StageRetrieving, apperrors.CodeRetrievalUnavailable, "similarity search failed", err)
	}
	return matches, nil
}

func (s *service) generate(ctx context.Context, prompt Prompt) (string, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	answer, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		return "", stageError(StageGenerating, apperrors.CodeGenerationUnavailable, "answer generation failed", err)
	}
	return answer, nil
}

func (s *service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

func (s *service) resolveTopK(requested int) int {
	k := requested
	if k <= 0 {
		k = s.cfg.TopK
	}
	if s.cfg.MaxTopK > 0 && k > s.cfg.MaxTopK {
		k = s.cfg.MaxTopK
	}
	return k
}

// stageError maps a collaborator failure onto the taxonomy, keeping an
// already-assigned code (e.g. a dimension mismatch from the retriever) and
// marking deadline overruns as timeouts.
func stageError(stage Stage, fallback, message string, err error) error {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = fallback
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = apperrors.CodeTimeout
	}
	return apperrors.WrapStage(code, string(stage), message, err)
}
