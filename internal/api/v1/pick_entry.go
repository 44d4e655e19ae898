package v1

import (
	"fmt"
	"time"
)

// PickEntry is one line of a pick/pack work order: a quantity of one SKU
// picked for one machine during a restocking run. Entries are the raw
// material every analytics endpoint aggregates over.
type PickEntry struct {
	// ID is the client-supplied identifier, unique per CompanyID. The
	// server assigns one when the client omits it, at the cost of losing
	// idempotent retries.
	ID string `json:"id"`

	// CompanyID scopes every entry to one tenant company.
	CompanyID string `json:"company_id"`

	// RunID ties the entry to the restocking run it was recorded on.
	RunID string `json:"run_id,omitempty"`

	// MachineID, LocationID and SKUID are the breakdown dimensions.
	MachineID  string `json:"machine_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	SKUID      string `json:"sku_id"`

	// Quantity is the number of items picked. Fractional quantities occur
	// for bulk goods sold by weight.
	Quantity float64 `json:"quantity"`

	// PickedAt is when the picker recorded the entry (client-side clock).
	PickedAt time.Time `json:"picked_at"`

	// RecordedAt is when the backend accepted the entry. Set server-side.
	RecordedAt time.Time `json:"recorded_at"`

	// Seq is a monotonic sequence number assigned by the database.
	// Not exposed in the public API.
	Seq int64 `json:"-"`
}

// Validate ensures the entry has all required attributes.
func (e *PickEntry) Validate() error {
	if e.CompanyID == "" {
		return fmt.Errorf("company_id is required")
	}
	if e.SKUID == "" {
		return fmt.Errorf("sku_id is required")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if e.PickedAt.IsZero() {
		return fmt.Errorf("picked_at is required")
	}
	return nil
}
