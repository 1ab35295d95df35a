//go:build integration
// +build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"

	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/repository"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAILogRepository(t *testing.T) {
	ctx := t.Context()
	trManager := manager.Must(trmpgx.NewDefaultFactory(db))

	logRepo := repository.NewAILogRepository(db, trmpgx.DefaultCtxGetter, retrier)
	analysisRepo := repository.NewAnalysisRepository(db, trmpgx.DefaultCtxGetter, retrier)

	userID := uuid.New()

	_ = trManager.Do(ctx, func(ctx context.Context) error {
		a := &models.Analysis{
			UserID:      userID,
			PRName:      "Audit target",
			BranchName:  "feature/audit",
			DiffContent: sampleDiff,
		}
		require.NoError(t, analysisRepo.CreateDraft(ctx, a))

		t.Run("Insert success record", func(t *testing.T) {
			entry := &models.AIRequestLog{
				AnalysisID: &a.ID,
				UserID:     userID,
				Model:      "mock/gpt-4o-mini",
				TokenUsage: 128,
				StatusCode: 200,
			}
			err := logRepo.Insert(ctx, entry)
			require.NoError(t, err)
			require.NotZero(t, entry.ID)
			require.False(t, entry.CreatedAt.IsZero())
		})

		t.Run("Insert failure record", func(t *testing.T) {
			message := "rate limit exceeded"
			entry := &models.AIRequestLog{
				AnalysisID:   &a.ID,
				UserID:       userID,
				Model:        "mock/gpt-4o-mini",
				StatusCode:   429,
				ErrorMessage: &message,
			}
			err := logRepo.Insert(ctx, entry)
			require.NoError(t, err)
			require.NotZero(t, entry.ID)
		})

		t.Run("entries survive analysis deletion detached", func(t *testing.T) {
			deleted, err := analysisRepo.DeleteByIDs(ctx, userID, []uuid.UUID{a.ID})
			require.NoError(t, err)
			require.Equal(t, int64(1), deleted)

			conn := trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)

			var count int
			err = conn.QueryRow(ctx,
				"SELECT COUNT(*) FROM ai_request_logs WHERE user_id = $1 AND analysis_id IS NULL",
				userID,
			).Scan(&count)
			require.NoError(t, err)
			require.Equal(t, 2, count)
		})

		return fmt.Errorf("rollback transaction")
	})
}
