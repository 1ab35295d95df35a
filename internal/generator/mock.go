package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pr-analysis-service/internal/models"
)

// MockModel is the model identifier reported by the mock client.
const MockModel = "mock/gpt-4o-mini"

// Error-simulation keywords: placing one of these in the PR name,
// branch name or diff makes the mock fail with the matching status
// code. Used by local development and tests.
const (
	KeywordInternalError      = "MOCK_ERROR_500"
	KeywordServiceUnavailable = "MOCK_ERROR_503"
	KeywordTimeout            = "MOCK_ERROR_TIMEOUT"
	KeywordRateLimit          = "MOCK_ERROR_429"
)

// Mock is a deterministic generation client for development and
// tests. It derives the triple from the diff's own line statistics and
// estimates token usage at four characters per token, the same
// heuristic the real provider's tokenizer approximates.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Generate(_ context.Context, diff, prName, branchName string, ticketID *string) (*Result, error) {
	combined := prName + " " + branchName + " " + diff
	if err := simulatedError(combined); err != nil {
		return nil, err
	}

	resp := mockResponse(diff, prName, branchName, ticketID)

	inputTokens := (len(diff) + len(prName) + len(branchName)) / 4
	outputTokens := (len(resp.Summary) + len(resp.Risks) + len(resp.Tests)) / 4

	return &Result{
		Response:   resp,
		TokenUsage: inputTokens + outputTokens,
		Model:      MockModel,
		StatusCode: http.StatusOK,
	}, nil
}

func simulatedError(text string) *GenerationError {
	switch {
	case strings.Contains(text, KeywordInternalError):
		return &GenerationError{
			Message:    "Internal server error from AI provider",
			StatusCode: http.StatusInternalServerError,
			Model:      MockModel,
		}
	case strings.Contains(text, KeywordServiceUnavailable):
		return &GenerationError{
			Message:    "AI service is temporarily unavailable",
			StatusCode: http.StatusServiceUnavailable,
			Model:      MockModel,
		}
	case strings.Contains(text, KeywordTimeout):
		return &GenerationError{
			Message:    "AI request timeout - service did not respond in time",
			StatusCode: http.StatusGatewayTimeout,
			Model:      MockModel,
		}
	case strings.Contains(text, KeywordRateLimit):
		return &GenerationError{
			Message:    "Rate limit exceeded - too many requests",
			StatusCode: http.StatusTooManyRequests,
			Model:      MockModel,
		}
	}
	return nil
}

func mockResponse(diff, prName, branchName string, ticketID *string) models.AIResponse {
	var added, removed, files int
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			files++
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}

	ticket := ""
	if ticketID != nil && *ticketID != "" {
		ticket = fmt.Sprintf("\n- Related ticket: %s", *ticketID)
	}

	return models.AIResponse{
		Summary: fmt.Sprintf(
			"## Summary\n\nPR %q from branch `%s` introduces:\n\n- **Added lines:** %d\n- **Removed lines:** %d\n- **Changed files:** %d%s\n\n[Mock AI] Generated by the mock client.",
			prName, branchName, added, removed, files, ticket,
		),
		Risks: fmt.Sprintf(
			"## Risks\n\n[Mock AI] Automatically flagged:\n\n1. Verify the change is covered by tests\n2. With %d removed lines, check backwards compatibility\n3. Manual security review recommended",
			removed,
		),
		Tests: "## Suggested tests\n\n[Mock AI] Recommended:\n\n1. Unit tests for the new behavior\n2. Regression tests for modified components\n3. An end-to-end pass over the affected flow",
	}
}
