package store

import (
	"context"

	"chatcal-api/core/errors"
	"chatcal-api/modules/colorslot/entity"
)

// Required column names of the backing table. Columns are located by name,
// never by position; a missing column is a configuration error.
const (
	ColumnID         = "id"
	ColumnLabel      = "label"
	ColumnBackground = "background"
	ColumnForeground = "foreground"
)

// TabularStore reads and writes the shared color table. ReadAll returns
// rows in the table's natural order; WriteLabel fills the label cell of a
// single pre-existing row. Implementations report ErrConfiguration for
// schema problems and ErrStoreUnavailable for I/O failures.
type TabularStore interface {
	ReadAll(ctx context.Context) ([]entity.ColorSlot, *errors.AppError)
	WriteLabel(ctx context.Context, slotID int, label string) *errors.AppError
}
