package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// Handler wires the HTTP transport to the chat service.
type Handler struct {
	chatSvc chat.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(chatSvc chat.Service, logger *slog.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

// Chat answers a user question against the FAQ knowledge base.
func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.chatSvc.Answer(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, pipelineHTTPError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trending returns the most frequently asked questions.
func (h *Handler) Trending(c *gin.Context) {
	items, err := h.chatSvc.Trending(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "trending_failed", errMessage(err), err))
		return
	}
	if items == nil {
		items = []chat.TrendingQuestion{}
	}
	c.JSON(http.StatusOK, gin.H{"questions": items})
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pipelineHTTPError maps pipeline error codes to transport statuses and
// carries the failed stage into the response body.
func pipelineHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeValidation:
		status = http.StatusBadRequest
	case apperrors.CodeDimensionMismatch:
		status = http.StatusInternalServerError
	case apperrors.CodeEmbeddingUnavailable, apperrors.CodeGenerationUnavailable:
		status = http.StatusBadGateway
	case apperrors.CodeRetrievalUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	case "":
		code = "chat_failed"
	}
	return &HTTPError{
		Status:  status,
		Code:    code,
		Stage:   apperrors.StageOf(err),
		Message: errMessage(err),
		Err:     err,
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
