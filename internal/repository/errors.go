package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrInvalidID           = errors.New("invalid id")
	ErrTxAborted           = errors.New("transaction aborted")
)

// wrapDBError maps driver errors to repository sentinels so callers
// can match with errors.Is without importing pgx.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pgErr.Detail)
		case "22P02":
			return fmt.Errorf("%w: %s", ErrInvalidID, pgErr.Message)
		case "25P02":
			return ErrTxAborted
		}
	}

	return err
}
