package services

import (
	"context"
	"database/sql"
	"errors"

	"winter-dragon/metrics"

	"gorm.io/gorm"
)

// transaction runs fn in a single database transaction using opts when set.
func transaction(ctx context.Context, db *gorm.DB, opts *sql.TxOptions, fn func(tx *gorm.DB) error) error {
	if opts == nil {
		return db.WithContext(ctx).Transaction(fn)
	}
	return db.WithContext(ctx).Transaction(fn, opts)
}

// errorKind classifies err for metrics labels.
func errorKind(err error) string {
	var verr *ValidationError
	var ferr *FormatError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &ferr):
		return "format"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "storage"
	}
}

func observeError(operation string, err error) {
	metrics.OperationErrors.WithLabelValues(operation, errorKind(err)).Inc()
}
