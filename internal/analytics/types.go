package analytics

import (
	"time"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
	"github.com/restocklab/restock-backend/internal/core/compare"
	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// DailyStats is the week-at-a-glance totals chart: one day bucket per point
// (the nominal week plus one trailing day), per-SKU segments reconciled
// against the authoritative day totals, and the in-period daily average.
type DailyStats struct {
	CompanyID    string               `json:"companyId"`
	TimeZone     string               `json:"timeZone"`
	Period       timeframe.PeriodType `json:"period"`
	WindowStart  time.Time            `json:"windowStart"`
	WindowEnd    time.Time            `json:"windowEnd"`
	Points       []aggregate.Point    `json:"points"`
	DailyTotals  map[string]float64   `json:"dailyTotals"`
	PeriodTotal  float64              `json:"periodTotal"`
	PositiveDays int                  `json:"positiveDays"`
	DailyAverage float64              `json:"dailyAverage"`
}

// EntityStats is a single entity's current-vs-previous period stat page.
// Change is null when the comparison is undefined (both totals zero).
type EntityStats struct {
	CompanyID     string                 `json:"companyId"`
	Dimension     aggregate.Dimension    `json:"dimension"`
	EntityID      string                 `json:"entityId"`
	TimeZone      string                 `json:"timeZone"`
	Period        timeframe.PeriodType   `json:"period"`
	CurrentTotal  float64                `json:"currentTotal"`
	PreviousTotal float64                `json:"previousTotal"`
	Change        *compare.PercentChange `json:"change"`
}

// ComparisonStats wraps a progress-aligned period comparison with the
// request parameters that produced it.
type ComparisonStats struct {
	CompanyID   string                   `json:"companyId"`
	TimeZone    string                   `json:"timeZone"`
	Period      timeframe.PeriodType     `json:"period"`
	WindowStart time.Time                `json:"windowStart"`
	WindowEnd   time.Time                `json:"windowEnd"`
	Comparison  compare.PeriodComparison `json:"comparison"`
}

// MomentumStats is the dashboard momentum card: the up and down leaders for
// one dimension plus the slot the dashboard opens with.
type MomentumStats struct {
	CompanyID string               `json:"companyId"`
	Dimension aggregate.Dimension  `json:"dimension"`
	TimeZone  string               `json:"timeZone"`
	Period    timeframe.PeriodType `json:"period"`
	Momentum  compare.Momentum     `json:"momentum"`
}

// BreakdownStats is a bucketed series grouped by the dimension the focus
// decision table resolved, along with the filter dimensions the UI may
// expose for the current focus.
type BreakdownStats struct {
	CompanyID   string                `json:"companyId"`
	TimeZone    string                `json:"timeZone"`
	Period      timeframe.PeriodType  `json:"period"`
	Preset      string                `json:"preset,omitempty"`
	Dimension   aggregate.Dimension   `json:"dimension"`
	Filters     []aggregate.Dimension `json:"filters"`
	WindowStart time.Time             `json:"windowStart"`
	WindowEnd   time.Time             `json:"windowEnd"`
	Points      []aggregate.Point     `json:"points"`
}
