package generator_test

import (
	"net/http"
	"strings"
	"testing"

	"pr-analysis-service/internal/generator"

	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/handler.go b/handler.go
--- a/handler.go
+++ b/handler.go
@@ -10,6 +10,8 @@
 func handle() {
+	log.Info("request")
+	metrics.Inc()
-	noop()
 }
`

func TestMock_Generate(t *testing.T) {
	mock := generator.NewMock()
	ctx := t.Context()

	t.Run("produces a full triple", func(t *testing.T) {
		result, err := mock.Generate(ctx, sampleDiff, "Add logging", "feature/logging", nil)
		require.NoError(t, err)
		require.Equal(t, generator.MockModel, result.Model)
		require.Equal(t, http.StatusOK, result.StatusCode)
		require.True(t, result.Response.Generated())
	})

	t.Run("summary reflects diff statistics", func(t *testing.T) {
		result, err := mock.Generate(ctx, sampleDiff, "Add logging", "feature/logging", nil)
		require.NoError(t, err)
		require.Contains(t, result.Response.Summary, "**Added lines:** 2")
		require.Contains(t, result.Response.Summary, "**Removed lines:** 1")
		require.Contains(t, result.Response.Summary, "**Changed files:** 1")
	})

	t.Run("ticket id included when present", func(t *testing.T) {
		ticket := "PROJ-123"
		result, err := mock.Generate(ctx, sampleDiff, "Add logging", "feature/logging", &ticket)
		require.NoError(t, err)
		require.Contains(t, result.Response.Summary, "PROJ-123")
	})

	t.Run("token usage approximates chars over four", func(t *testing.T) {
		prName := "Add logging"
		branchName := "feature/logging"
		result, err := mock.Generate(ctx, sampleDiff, prName, branchName, nil)
		require.NoError(t, err)

		input := (len(sampleDiff) + len(prName) + len(branchName)) / 4
		output := (len(result.Response.Summary) + len(result.Response.Risks) + len(result.Response.Tests)) / 4
		require.Equal(t, input+output, result.TokenUsage)
	})
}

func TestMock_SimulatedErrors(t *testing.T) {
	mock := generator.NewMock()
	ctx := t.Context()

	tests := []struct {
		keyword    string
		statusCode int
	}{
		{generator.KeywordInternalError, http.StatusInternalServerError},
		{generator.KeywordServiceUnavailable, http.StatusServiceUnavailable},
		{generator.KeywordTimeout, http.StatusGatewayTimeout},
		{generator.KeywordRateLimit, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			diff := strings.Replace(sampleDiff, "log.Info", tt.keyword, 1)

			_, err := mock.Generate(ctx, diff, "PR", "branch", nil)

			var genErr *generator.GenerationError
			require.ErrorAs(t, err, &genErr)
			require.Equal(t, tt.statusCode, genErr.StatusCode)
			require.Equal(t, generator.MockModel, genErr.Model)
		})
	}

	t.Run("keyword in the PR name triggers too", func(t *testing.T) {
		_, err := mock.Generate(ctx, sampleDiff, "test "+generator.KeywordRateLimit, "branch", nil)

		var genErr *generator.GenerationError
		require.ErrorAs(t, err, &genErr)
		require.Equal(t, http.StatusTooManyRequests, genErr.StatusCode)
	})
}
