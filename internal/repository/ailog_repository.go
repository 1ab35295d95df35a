package repository

import (
	"context"

	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/retry"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AILogRepository appends generation-attempt audit records. The core
// never reads these back; they are write-only telemetry.
type AILogRepository struct {
	db      *pgxpool.Pool
	getter  *trmpgx.CtxGetter
	psql    sq.StatementBuilderType
	retrier retry.Retrier
}

func NewAILogRepository(db *pgxpool.Pool, c *trmpgx.CtxGetter, r retry.Retrier) *AILogRepository {
	return &AILogRepository{
		db:      db,
		getter:  c,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		retrier: r,
	}
}

func (r *AILogRepository) Insert(ctx context.Context, entry *models.AIRequestLog) error {
	query := r.psql.Insert("ai_request_logs").
		Columns("analysis_id", "user_id", "model", "token_usage", "status_code", "error_message").
		Values(entry.AnalysisID, entry.UserID, entry.Model, entry.TokenUsage, entry.StatusCode, entry.ErrorMessage).
		Suffix("RETURNING id, created_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		return wrapDBError(conn.QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.CreatedAt))
	})

	return err
}
