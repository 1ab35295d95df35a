package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pr-analysis-service/internal/models"
	"pr-analysis-service/internal/retry"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// emptyAIResponse is the storage sentinel for "not yet generated".
const emptyAIResponse = "{}"

type AnalysisRepository struct {
	db      *pgxpool.Pool
	getter  *trmpgx.CtxGetter
	psql    sq.StatementBuilderType
	retrier retry.Retrier
}

func NewAnalysisRepository(db *pgxpool.Pool, c *trmpgx.CtxGetter, r retry.Retrier) *AnalysisRepository {
	return &AnalysisRepository{
		db:      db,
		getter:  c,
		psql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		retrier: r,
	}
}

// UpdateCommand is the full overwrite applied by Update. The whole
// AI response triple is replaced, never merged field by field.
type UpdateCommand struct {
	PRName     string
	BranchName string
	TicketID   *string
	AIResponse models.AIResponse
	StatusID   int
}

// CreateDraft inserts a new analysis in draft status with the empty
// AI response sentinel and fills the server-assigned fields on a.
func (r *AnalysisRepository) CreateDraft(ctx context.Context, a *models.Analysis) error {
	query := r.psql.Insert("pr_analyses").
		Columns("user_id", "pr_name", "branch_name", "ticket_id", "diff_content", "status_id", "ai_response").
		Values(a.UserID, a.PRName, a.BranchName, a.TicketID, a.DiffContent, models.StatusDraft, emptyAIResponse).
		Suffix("RETURNING id, created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		return wrapDBError(conn.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
	})
	if err != nil {
		return err
	}

	a.Status = models.DraftStatus
	a.AIResponse = models.AIResponse{}

	return nil
}

// GetByID fetches one analysis with its status resolved. Rows owned by
// other users are indistinguishable from absent rows.
func (r *AnalysisRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Analysis, error) {
	query := r.psql.Select(
		"a.id", "a.user_id", "a.pr_name", "a.branch_name", "a.ticket_id",
		"a.diff_content", "a.ai_response", "a.created_at", "a.updated_at",
		"s.id", "s.code",
	).From("pr_analyses a").
		Join("analysis_statuses s ON s.id = a.status_id").
		Where(sq.Eq{"a.id": id, "a.user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	a := &models.Analysis{}
	var raw []byte

	err = r.retrier.Do(ctx, func() error {
		return wrapDBError(conn.QueryRow(ctx, sql, args...).Scan(
			&a.ID, &a.UserID, &a.PRName, &a.BranchName, &a.TicketID,
			&a.DiffContent, &raw, &a.CreatedAt, &a.UpdatedAt,
			&a.Status.ID, &a.Status.Code,
		))
	})
	if err != nil {
		return nil, err
	}

	if a.AIResponse, err = decodeAIResponse(raw); err != nil {
		return nil, err
	}

	return a, nil
}

// SetAIResponse stores a freshly generated triple on an existing row.
func (r *AnalysisRepository) SetAIResponse(ctx context.Context, userID, id uuid.UUID, resp models.AIResponse) error {
	raw, err := encodeAIResponse(resp)
	if err != nil {
		return err
	}

	query := r.psql.Update("pr_analyses").
		Set("ai_response", raw).
		Where(sq.Eq{"id": id, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)

	err = r.retrier.Do(ctx, func() error {
		tag, retryErr := conn.Exec(ctx, sql, args...)
		if retryErr != nil {
			return wrapDBError(retryErr)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})

	return err
}

// Update applies a full overwrite of the editable fields and returns
// the updated row. The returned Status carries the id only; code
// resolution is the caller's concern.
func (r *AnalysisRepository) Update(ctx context.Context, userID, id uuid.UUID, cmd UpdateCommand) (*models.Analysis, error) {
	raw, err := encodeAIResponse(cmd.AIResponse)
	if err != nil {
		return nil, err
	}

	query := r.psql.Update("pr_analyses").
		Set("pr_name", cmd.PRName).
		Set("branch_name", cmd.BranchName).
		Set("ticket_id", cmd.TicketID).
		Set("ai_response", raw).
		Set("status_id", cmd.StatusID).
		Where(sq.Eq{"id": id, "user_id": userID}).
		Suffix("RETURNING id, user_id, pr_name, branch_name, ticket_id, diff_content, ai_response, status_id, created_at, updated_at")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	a := &models.Analysis{}
	var rawOut []byte

	err = r.retrier.Do(ctx, func() error {
		return wrapDBError(conn.QueryRow(ctx, sql, args...).Scan(
			&a.ID, &a.UserID, &a.PRName, &a.BranchName, &a.TicketID,
			&a.DiffContent, &rawOut, &a.Status.ID, &a.CreatedAt, &a.UpdatedAt,
		))
	})
	if err != nil {
		return nil, err
	}

	if a.AIResponse, err = decodeAIResponse(rawOut); err != nil {
		return nil, err
	}

	return a, nil
}

// DeleteByIDs removes the caller's analyses matching ids and reports
// how many rows were actually deleted. Absent and foreign ids are
// skipped silently.
func (r *AnalysisRepository) DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := r.psql.Delete("pr_analyses").
		Where(sq.Eq{"id": ids, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	var deleted int64

	err = r.retrier.Do(ctx, func() error {
		tag, retryErr := conn.Exec(ctx, sql, args...)
		if retryErr != nil {
			return wrapDBError(retryErr)
		}
		deleted = tag.RowsAffected()
		return nil
	})

	return deleted, err
}

var sortColumns = map[string]string{
	models.SortFieldCreatedAt:  "a.created_at",
	models.SortFieldPRName:     "a.pr_name",
	models.SortFieldBranchName: "a.branch_name",
}

// List returns one page of summary projections plus the exact total
// count under the same filters.
func (r *AnalysisRepository) List(ctx context.Context, userID uuid.UUID, q models.ListQuery) ([]*models.AnalysisSummary, int64, error) {
	where := listFilters(userID, q)

	column, ok := sortColumns[q.SortField]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", q.SortField)
	}
	direction := "DESC"
	if q.SortOrder == models.SortOrderAsc {
		direction = "ASC"
	}

	query := r.psql.Select(
		"a.id", "a.pr_name", "a.branch_name", "a.created_at",
		"s.id", "s.code",
	).From("pr_analyses a").
		Join("analysis_statuses s ON s.id = a.status_id").
		Where(where).
		OrderBy(column + " " + direction).
		Limit(uint64(q.Limit)).
		Offset(q.Offset())

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := r.psql.Select("COUNT(*)").
		From("pr_analyses a").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	conn := r.getter.DefaultTrOrDB(ctx, r.db)
	items := make([]*models.AnalysisSummary, 0, q.Limit)
	var total int64

	err = r.retrier.Do(ctx, func() error {
		items = items[:0]

		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return wrapDBError(err)
		}
		defer rows.Close()

		item := &models.AnalysisSummary{}
		for rows.Next() {
			if err := rows.Scan(
				&item.ID, &item.PRName, &item.BranchName, &item.CreatedAt,
				&item.Status.ID, &item.Status.Code,
			); err != nil {
				return wrapDBError(err)
			}
			items = append(items, item)
			item = &models.AnalysisSummary{}
		}
		if err := rows.Err(); err != nil {
			return wrapDBError(err)
		}

		return wrapDBError(conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total))
	})
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func listFilters(userID uuid.UUID, q models.ListQuery) sq.Sqlizer {
	and := sq.And{sq.Eq{"a.user_id": userID}}

	if q.StatusID != nil {
		and = append(and, sq.Eq{"a.status_id": *q.StatusID})
	}

	// Unified search: one term, OR semantics over both name columns.
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		and = append(and, sq.Or{
			sq.ILike{"a.pr_name": pattern},
			sq.ILike{"a.branch_name": pattern},
		})
	}

	return and
}

// encodeAIResponse translates the triple to its storage form. The
// not-generated state is stored as the {} sentinel, never as a triple
// of empty strings.
func encodeAIResponse(resp models.AIResponse) (string, error) {
	if !resp.Generated() {
		return emptyAIResponse, nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeAIResponse(raw []byte) (models.AIResponse, error) {
	resp := models.AIResponse{}
	if len(raw) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.AIResponse{}, fmt.Errorf("decode ai_response: %w", err)
	}
	return resp, nil
}
