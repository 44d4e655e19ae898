package postgres

import (
	"fmt"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
)

// SQL for pick entry storage and the analytics row-fetch surface.
//
// Quantity is a NUMERIC column; every query casts it to text so the single
// ToNumber coercion at the adapter boundary owns the numeric conversion.

const (
	// querySaveEntry inserts an entry with company-scoped idempotency.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveEntry = `
		INSERT INTO pick_entries (
			id, company_id, run_id, machine_id, location_id,
			sku_id, quantity, picked_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id, id) DO NOTHING
		RETURNING seq
	`

	// queryDailyRows fetches untagged rows for bucket totals.
	queryDailyRows = `
		SELECT picked_at, quantity::text
		FROM pick_entries
		WHERE company_id = $1
		  AND picked_at >= $2
		  AND picked_at < $3
		ORDER BY picked_at ASC, seq ASC
	`
)

// dimensionRelation maps a breakdown dimension to its entry column and the
// reference table carrying friendly names. Acts as a whitelist: queries are
// only ever built from these fixed identifiers.
type dimensionRelation struct {
	column string
	table  string
}

var dimensionRelations = map[aggregate.Dimension]dimensionRelation{
	aggregate.DimensionSKU:      {column: "sku_id", table: "skus"},
	aggregate.DimensionMachine:  {column: "machine_id", table: "machines"},
	aggregate.DimensionLocation: {column: "location_id", table: "locations"},
}

func dimensionRowsQuery(rel dimensionRelation) string {
	return fmt.Sprintf(`
		SELECT p.picked_at, p.quantity::text, p.%[1]s, COALESCE(d.name, p.%[1]s)
		FROM pick_entries p
		LEFT JOIN %[2]s d ON d.id = p.%[1]s
		WHERE p.company_id = $1
		  AND p.picked_at >= $2
		  AND p.picked_at < $3
		  AND p.%[1]s <> ''
		ORDER BY p.picked_at ASC, p.seq ASC
	`, rel.column, rel.table)
}

func rangeTotalQuery(rel dimensionRelation) string {
	return fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity), 0)::text
		FROM pick_entries
		WHERE company_id = $1
		  AND %s = $2
		  AND picked_at >= $3
		  AND picked_at < $4
	`, rel.column)
}

func dimensionTotalsQuery(rel dimensionRelation) string {
	return fmt.Sprintf(`
		SELECT p.%[1]s, COALESCE(d.name, p.%[1]s), COALESCE(SUM(p.quantity), 0)::text
		FROM pick_entries p
		LEFT JOIN %[2]s d ON d.id = p.%[1]s
		WHERE p.company_id = $1
		  AND p.picked_at >= $2
		  AND p.picked_at < $3
		  AND p.%[1]s <> ''
		GROUP BY p.%[1]s, d.name
		ORDER BY p.%[1]s ASC
	`, rel.column, rel.table)
}
