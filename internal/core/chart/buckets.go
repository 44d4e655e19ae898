// Package chart subdivides a period's chart range into calendar-aligned
// buckets. Bucket granularity follows the period type: week periods bucket
// by day, month periods by ISO week, quarter periods by month.
package chart

import (
	"fmt"
	"time"

	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// Bucket is one fixed subdivision of a chart range. Buckets tile the range
// [chartStart, chartEnd) with no gaps and no overlaps; a row with instant t
// belongs to the unique bucket where StartMs <= t < EndMs.
type Bucket struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	StartMs int64     `json:"startMs"`
	EndMs   int64     `json:"endMs"`
}

// Contains reports whether the instant falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	ms := t.UnixMilli()
	return b.StartMs <= ms && ms < b.EndMs
}

// Build tiles [chartStart, chartEnd) with buckets sized by the period type.
// The first bucket starts exactly at chartStart; each following bucket
// starts at the previous natural calendar boundary. The final bucket's End
// may exceed chartEnd when the last natural boundary does not align with it.
//
// Callers pass an already-widened range when the chart extends beyond the
// nominal period (e.g. a week totals chart showing one trailing future day).
func Build(period timeframe.PeriodType, chartStart, chartEnd time.Time, loc *time.Location) []Bucket {
	var buckets []Bucket
	cur := chartStart
	for cur.Before(chartEnd) {
		next := nextBoundary(period, loc, cur)
		buckets = append(buckets, Bucket{
			Key:     bucketKey(period, loc, cur),
			Label:   bucketLabel(period, loc, cur),
			Start:   cur,
			End:     next,
			StartMs: cur.UnixMilli(),
			EndMs:   next.UnixMilli(),
		})
		cur = next
	}
	return buckets
}

// Locate returns the index of the bucket owning the instant, or false when
// the instant falls outside every bucket. Rows outside all buckets are
// dropped by the aggregator; that permissive behavior starts here.
func Locate(buckets []Bucket, t time.Time) (int, bool) {
	for i, b := range buckets {
		if b.Contains(t) {
			return i, true
		}
	}
	return 0, false
}

// nextBoundary returns the first natural calendar boundary strictly after
// cur for the bucket granularity implied by the period type.
func nextBoundary(period timeframe.PeriodType, loc *time.Location, cur time.Time) time.Time {
	local := cur.In(loc)
	switch period {
	case timeframe.PeriodMonth:
		// ISO week buckets: the Monday after cur.
		return timeframe.WeekStart(loc, cur).AddDate(0, 0, 7)
	case timeframe.PeriodQuarter:
		// Month buckets: first of the next month.
		year, month, _ := local.Date()
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	default:
		// Day buckets: next local midnight.
		year, month, day := local.Date()
		return time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	}
}

func bucketKey(period timeframe.PeriodType, loc *time.Location, start time.Time) string {
	local := start.In(loc)
	if period == timeframe.PeriodQuarter {
		return local.Format("2006-01")
	}
	return local.Format(timeframe.DayLabelLayout)
}

func bucketLabel(period timeframe.PeriodType, loc *time.Location, start time.Time) string {
	local := start.In(loc)
	switch period {
	case timeframe.PeriodMonth:
		year, week := local.ISOWeek()
		return fmt.Sprintf("W%02d %d", week, year)
	case timeframe.PeriodQuarter:
		return local.Format("Jan 2006")
	default:
		return local.Format(timeframe.DayLabelLayout)
	}
}
