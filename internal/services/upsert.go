package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"

	"gorm.io/gorm"
)

// maxUpsertAttempts bounds the update-then-insert loop. A unique violation on
// insert means a concurrent writer created the key first; the next attempt
// finds it and takes the update path.
const maxUpsertAttempts = 3

// upsert writes row under key in its own transaction: update the existing
// row with updates, or insert row when none exists. It reports whether a new
// row was inserted.
func upsert[T any](ctx context.Context, db *gorm.DB, row *T, key map[string]interface{}, updates map[string]interface{}) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		created := false
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(new(T)).Where(key).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				return nil
			}
			created = true
			return tx.Create(row).Error
		})
		if err == nil {
			return created, nil
		}
		if !isUniqueConstraintError(err) {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		lastErr = err
		logger.Get().Debugw("upsert conflict, retrying as update", "key", key, "attempt", attempt)
	}
	return false, apperrors.Wrap(apperrors.ErrUpsertConflict,
		fmt.Errorf("key %v after %d attempts: %w", key, maxUpsertAttempts, lastErr))
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
