package aggregate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dimension is a breakdown axis for pick-entry aggregation.
type Dimension string

const (
	DimensionSKU      Dimension = "sku"
	DimensionMachine  Dimension = "machine"
	DimensionLocation Dimension = "location"
)

// ValidDimension reports whether d names a known breakdown axis.
func ValidDimension(d Dimension) bool {
	switch d {
	case DimensionSKU, DimensionMachine, DimensionLocation:
		return true
	}
	return false
}

// Row is one already-fetched record at the engine boundary: an instant, a
// count, and an optional dimension tag. Rows arrive pre-filtered by company
// and restricted to a superset of the requested chart range.
//
// Day may carry a pre-formatted YYYY-MM-DD calendar label from the data
// layer; when it is empty the label is derived from OccurredAt in the
// request timezone.
type Row struct {
	OccurredAt     time.Time
	Day            string
	Count          float64
	DimensionID    string
	DimensionLabel string
}

// ToNumber coerces heterogeneous database numeric wire types (decimal,
// bigint, string, bytes) into the engine's float64 model. Unrecognized or
// malformed values coerce to 0 — analytics are best-effort over imperfect
// historical data.
func ToNumber(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case decimal.Decimal:
		f, _ := val.Float64()
		return f
	case []byte:
		return parseNumber(string(val))
	case string:
		return parseNumber(val)
	default:
		return 0
	}
}

func parseNumber(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
