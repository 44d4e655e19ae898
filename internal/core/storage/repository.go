package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/restocklab/restock-backend/internal/api/v1"
	"github.com/restocklab/restock-backend/internal/core/aggregate"
)

// ErrDuplicate is returned when an entry with the same (company_id, id)
// already exists.
var ErrDuplicate = errors.New("pick entry already exists")

// DimensionTotal is one entity's summed quantity over a single window,
// used as momentum leader candidate input.
type DimensionTotal struct {
	ID    string
	Name  string
	Total float64
}

// PickStore defines persistence for pick entries and the row-fetch surface
// the analytics engine consumes. The engine itself never issues queries;
// every fetch here returns already-flattened rows or totals.
type PickStore interface {
	// SavePickEntry persists an entry and populates its Seq.
	// Returns ErrDuplicate when (company_id, id) already exists.
	SavePickEntry(ctx context.Context, entry *v1.PickEntry) error

	// FetchDailyRows returns one untagged row per entry picked in
	// [start, end), ordered by picked_at.
	FetchDailyRows(ctx context.Context, companyID string, start, end time.Time) ([]aggregate.Row, error)

	// FetchDimensionRows returns rows tagged with the given dimension's
	// entity ID and friendly name.
	FetchDimensionRows(ctx context.Context, companyID string, dim aggregate.Dimension, start, end time.Time) ([]aggregate.Row, error)

	// FetchRangeTotal returns the summed quantity for one entity of the
	// given dimension over [start, end).
	FetchRangeTotal(ctx context.Context, companyID string, dim aggregate.Dimension, entityID string, start, end time.Time) (float64, error)

	// FetchDimensionTotals returns per-entity summed quantities for the
	// given dimension over [start, end). Entities with no entries in the
	// window are absent.
	FetchDimensionTotals(ctx context.Context, companyID string, dim aggregate.Dimension, start, end time.Time) ([]DimensionTotal, error)
}
