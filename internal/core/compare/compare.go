// Package compare computes progress-aligned period-over-period deltas,
// percentage changes with defined zero edge cases, and up/down momentum
// leader selection.
package compare

import (
	"math"
	"time"

	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// Trend classifies a percentage change for stat pages.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// PercentChange is a simple current-vs-previous change used by
// single-entity stat pages. A nil *PercentChange means the comparison is
// undefined (both totals zero), not "no change".
type PercentChange struct {
	Value float64 `json:"value"`
	Trend Trend   `json:"trend"`
}

// ChangeBetween computes the percentage change from previous to current.
// Edge cases: 0 vs 0 is undefined (nil); growth from zero reports +100 up;
// collapse to zero reports -100 down. Changes within ±0.5 points are
// neutral.
func ChangeBetween(current, previous float64) *PercentChange {
	switch {
	case current == 0 && previous == 0:
		return nil
	case previous == 0:
		return &PercentChange{Value: 100, Trend: TrendUp}
	case current == 0:
		return &PercentChange{Value: -100, Trend: TrendDown}
	}

	value := roundTo1(((current - previous) / previous) * 100)
	trend := TrendNeutral
	if value > 0.5 {
		trend = TrendUp
	} else if value < -0.5 {
		trend = TrendDown
	}
	return &PercentChange{Value: value, Trend: trend}
}

// PeriodComparison compares one current (possibly partial) window against
// the average of N previous windows truncated to the same elapsed progress.
type PeriodComparison struct {
	CurrentTotal             float64   `json:"currentTotal"`
	PreviousTotals           []float64 `json:"previousTotals"`
	PreviousAverage          float64   `json:"previousAverage"`
	DeltaFromPreviousAverage float64   `json:"deltaFromPreviousAverage"`
	DeltaPercentage          *float64  `json:"deltaPercentage"` // nil when previous average is zero
	ProgressFraction         float64   `json:"progressFraction"`
}

// ProgressWindows builds the fetch windows for a progress-aligned
// comparison: the current window truncated to now, and previousCount
// earlier windows each truncated to the same elapsed duration (never past
// their own end). Comparing "5 days into this week" against the first
// 5 days of each prior week keeps the comparison apples-to-apples.
func ProgressWindows(
	period timeframe.PeriodType,
	loc *time.Location,
	now time.Time,
	previousCount int,
) (current timeframe.Window, previous []timeframe.Window, progress float64) {
	full := timeframe.PeriodWindow(period, loc, now, 0)

	elapsed := now.Sub(full.Start)
	if elapsed < 0 {
		elapsed = 0
	}
	if d := full.Duration(); elapsed > d {
		elapsed = d
	}
	if d := full.Duration(); d > 0 {
		progress = float64(elapsed) / float64(d)
	}

	current = timeframe.Window{Start: full.Start, End: full.Start.Add(elapsed)}
	previous = make([]timeframe.Window, 0, previousCount)
	for k := 1; k <= previousCount; k++ {
		w := timeframe.PeriodWindow(period, loc, now, k)
		end := w.Start.Add(elapsed)
		if end.After(w.End) {
			end = w.End
		}
		previous = append(previous, timeframe.Window{Start: w.Start, End: end})
	}
	return current, previous, progress
}

// Periods assembles a PeriodComparison from already-fetched totals. The
// delta percentage is nil (undefined) when the previous average is zero.
func Periods(currentTotal float64, previousTotals []float64, progress float64) PeriodComparison {
	cmp := PeriodComparison{
		CurrentTotal:     currentTotal,
		PreviousTotals:   previousTotals,
		ProgressFraction: progress,
	}

	if len(previousTotals) > 0 {
		var sum float64
		for _, v := range previousTotals {
			sum += v
		}
		cmp.PreviousAverage = sum / float64(len(previousTotals))
	}

	cmp.DeltaFromPreviousAverage = currentTotal - cmp.PreviousAverage
	if cmp.PreviousAverage != 0 {
		pct := cmp.DeltaFromPreviousAverage / cmp.PreviousAverage * 100
		cmp.DeltaPercentage = &pct
	}
	return cmp
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
