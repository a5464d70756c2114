package errors

import "errors"

// Error codes shared across the chat pipeline. Handlers map these to HTTP
// statuses; each stage boundary attaches exactly one code to a collaborator
// failure.
const (
	CodeValidation            = "validation_error"
	CodeDimensionMismatch     = "dimension_mismatch"
	CodeEmbeddingUnavailable  = "embedding_unavailable"
	CodeRetrievalUnavailable  = "retrieval_unavailable"
	CodeGenerationUnavailable = "generation_unavailable"
	CodeTimeout               = "timeout"
	CodeLoggingFailure        = "logging_failure"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Stage   string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// WrapStage records the pipeline stage that produced the failure.
func WrapStage(code, stage, message string, err error) error {
	return &AppError{Code: code, Stage: stage, Message: message, Err: err}
}

// IsCode helps handlers differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the error code, or empty for non AppError values.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// StageOf returns the pipeline stage recorded on the error, if any.
func StageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}
