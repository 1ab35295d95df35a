package generator

import (
	"fmt"

	"pr-analysis-service/internal/models"
)

// Result is a successful generation: the review triple plus the
// telemetry the audit log records.
type Result struct {
	Response   models.AIResponse
	TokenUsage int
	Model      string
	StatusCode int
}

// GenerationError is the typed failure of a generation attempt. It
// carries the upstream HTTP-style status code so callers can decide
// retryability, and the telemetry fields for the audit log.
type GenerationError struct {
	Message    string
	StatusCode int
	TokenUsage int
	Model      string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("AI generation failed (%d): %s", e.StatusCode, e.Message)
}
