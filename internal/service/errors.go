package service

import (
	"errors"

	"pr-analysis-service/internal/repository"
)

var (
	// ErrNotFound covers both absent rows and rows owned by another
	// user; the storage layer makes the two indistinguishable.
	ErrNotFound = repository.ErrNotFound

	// ErrInvalidStatus marks an update whose status_id is not in the
	// seeded reference set. It is about the payload, not the target
	// row, and maps to 422 rather than 404.
	ErrInvalidStatus = errors.New("invalid status")
)
