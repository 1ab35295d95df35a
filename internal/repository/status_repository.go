package repository

import (
	"context"

	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/retry"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusRepository reads the seeded analysis status reference set.
type StatusRepository struct {
	db      *pgxpool.Pool
	getter  *trmpgx.CtxGetter
	psql    sq.StatementBuilderType
	retrier retry.Retrier
}

func NewStatusRepository(db *pgxpool.Pool, c *trmpgx.CtxGetter, r retry.Retrier) *StatusRepository {
	return &StatusRepository{
		db:      db,
		getter:  c,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		retrier: r,
	}
}

func (r *StatusRepository) GetByID(ctx context.Context, id int) (*models.Status, error) {
	query := r.psql.Select("id", "code").
		From("analysis_statuses").
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	s := &models.Status{}

	err = r.retrier.Do(ctx, func() error {
		return wrapDBError(conn.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.Code))
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}
