package store

import (
	"context"
	"database/sql"
	"fmt"

	"chatcal-api/core/database"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/modules/colorslot/entity"

	"github.com/lib/pq"
)

// sqlStore backs the color table with Postgres for deployments that do not
// share a spreadsheet. Natural order is ascending id.
type sqlStore struct {
	db database.IDatabase
}

func NewSQLStore(db database.IDatabase) TabularStore {
	return &sqlStore{db: db}
}

func (s *sqlStore) ReadAll(ctx context.Context) ([]entity.ColorSlot, *errors.AppError) {
	query := `
		SELECT id, COALESCE(label, '') AS label, background, foreground
		FROM color_slots
		ORDER BY id
	`
	var slots []entity.ColorSlot
	if err := s.db.SelectContext(ctx, &slots, query); err != nil {
		if isSchemaError(err) {
			logger.Error("SQLStore:ReadAll:SchemaError", "error", err)
			return nil, errors.NewAppError(errors.ErrConfiguration, "color_slots table schema is missing or malformed", err)
		}
		logger.Error("SQLStore:ReadAll:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrStoreUnavailable, "failed to read color table", err)
	}
	return slots, nil
}

func (s *sqlStore) WriteLabel(ctx context.Context, slotID int, label string) *errors.AppError {
	query := `
		UPDATE color_slots
		SET label = $1
		WHERE id = $2 AND COALESCE(label, '') = ''
		RETURNING id
	`
	var id int
	err := s.db.QueryRowContext(ctx, query, label, slotID).Scan(&id)
	if err == sql.ErrNoRows {
		// The empty-cell guard refused the write; the caller re-reads and
		// retries rather than ever overwriting an existing binding.
		return errors.NewAppError(errors.ErrStoreUnavailable,
			fmt.Sprintf("slot %d is no longer empty", slotID), nil)
	}
	if err != nil {
		if isSchemaError(err) {
			return errors.NewAppError(errors.ErrConfiguration, "color_slots table schema is missing or malformed", err)
		}
		logger.Error("SQLStore:WriteLabel:Error", "error", err, "slot_id", slotID)
		return errors.NewAppError(errors.ErrStoreUnavailable, "failed to write label", err)
	}

	logger.Info("SQLStore:WriteLabel:Success", "slot_id", slotID)
	return nil
}

// isSchemaError reports whether err is an undefined table/column error.
func isSchemaError(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "42P01" || pqErr.Code == "42703"
	}
	return false
}
