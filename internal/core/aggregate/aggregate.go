// Package aggregate folds raw timestamped rows into chart buckets, producing
// per-bucket totals and per-dimension segment breakdowns. Every function is
// a pure transformation; each call owns its own maps, so concurrent requests
// never share state.
package aggregate

import (
	"time"

	"github.com/restocklab/restock-backend/internal/core/chart"
	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// The implicit overflow segment appended when dimensional segments fall
// short of a bucket's authoritative total.
const (
	OtherSegmentID   = "other"
	OtherSegmentName = "Other"
)

// Segment is one dimension member's contribution to a bucket total.
type Segment struct {
	ID           string  `json:"id"`
	FriendlyName string  `json:"friendlyName"`
	TotalItems   float64 `json:"totalItems"`
}

// Point is one aggregated chart bucket. TotalItems is the authoritative
// bucket total; Segments sum to at most TotalItems.
type Point struct {
	BucketKey   string    `json:"bucketKey"`
	BucketLabel string    `json:"bucketLabel"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TotalItems  float64   `json:"totalItems"`
	Segments    []Segment `json:"segments"`
}

// Result is the output of one aggregation pass.
type Result struct {
	Points      []Point
	DailyTotals map[string]float64 // keyed by YYYY-MM-DD label in the request timezone
}

// Fold aggregates rows into the bucket skeleton. For every row it normalizes
// the calendar-day label, adds the count to the owning bucket's total and
// the per-day total, and — when groupByDimension is set — accumulates a
// per-bucket segment keyed by the row's dimension ID, carrying the
// first-seen dimension label.
//
// Rows that fall outside all buckets, or whose day label cannot be
// normalized, are dropped silently.
func Fold(buckets []chart.Bucket, rows []Row, loc *time.Location, groupByDimension bool) Result {
	points := make([]Point, len(buckets))
	for i, b := range buckets {
		points[i] = Point{
			BucketKey:   b.Key,
			BucketLabel: b.Label,
			Start:       b.Start,
			End:         b.End,
		}
	}

	dailyTotals := make(map[string]float64)
	segmentIndex := make([]map[string]int, len(buckets))

	for _, row := range rows {
		instant, label, ok := normalizeRow(row, loc)
		if !ok {
			continue
		}

		idx, ok := chart.Locate(buckets, instant)
		if !ok {
			continue
		}

		points[idx].TotalItems += row.Count
		dailyTotals[label] += row.Count

		if !groupByDimension || row.DimensionID == "" {
			continue
		}
		if segmentIndex[idx] == nil {
			segmentIndex[idx] = make(map[string]int)
		}
		si, seen := segmentIndex[idx][row.DimensionID]
		if !seen {
			segmentIndex[idx][row.DimensionID] = len(points[idx].Segments)
			points[idx].Segments = append(points[idx].Segments, Segment{
				ID:           row.DimensionID,
				FriendlyName: row.DimensionLabel,
				TotalItems:   row.Count,
			})
			continue
		}
		points[idx].Segments[si].TotalItems += row.Count
	}

	return Result{Points: points, DailyTotals: dailyTotals}
}

// normalizeRow resolves a row's owning instant and calendar-day label. A
// 10-character YYYY-MM-DD Day is treated as already normalized; otherwise
// the label is re-derived from the instant. Rows with neither a usable
// instant nor a parseable day label are dropped.
func normalizeRow(row Row, loc *time.Location) (time.Time, string, bool) {
	instant := row.OccurredAt
	label := ""

	if len(row.Day) == len(timeframe.DayLabelLayout) {
		label = row.Day
	}

	if instant.IsZero() {
		if label == "" {
			return time.Time{}, "", false
		}
		parsed, err := time.ParseInLocation(timeframe.DayLabelLayout, label, loc)
		if err != nil {
			return time.Time{}, "", false
		}
		instant = parsed
	}

	if label == "" {
		label = timeframe.DayLabel(loc, instant)
	}

	return instant, label, true
}

// Reconcile overlays dimensional segments onto points carrying authoritative
// totals. The segment source is a separate, possibly more granular row set:
// when sum(segments) falls short of the bucket total, an implicit "Other"
// segment makes up the difference. When segments meet or exceed the total
// (overlapping or duplicate source rows), nothing is appended and the
// discrepancy stays visible to the caller.
func Reconcile(totals []Point, segmented []Point) []Point {
	byKey := make(map[string][]Segment, len(segmented))
	for _, p := range segmented {
		byKey[p.BucketKey] = p.Segments
	}

	out := make([]Point, len(totals))
	for i, p := range totals {
		segments := byKey[p.BucketKey]
		var segmentSum float64
		for _, s := range segments {
			segmentSum += s.TotalItems
		}
		if shortfall := p.TotalItems - segmentSum; shortfall > 0 {
			segments = append(append([]Segment(nil), segments...), Segment{
				ID:           OtherSegmentID,
				FriendlyName: OtherSegmentName,
				TotalItems:   shortfall,
			})
		}
		p.Segments = segments
		out[i] = p
	}
	return out
}

// PositiveBucketCount counts buckets usable for average calculations: the
// bucket must fall inside the nominal (non-widened) period window and carry
// a strictly positive total. ISO-week buckets of a month period are
// attributed by their final day, so a week spanning a month boundary belongs
// to the month containing its last day.
func PositiveBucketCount(points []Point, nominal timeframe.Window, period timeframe.PeriodType) int {
	count := 0
	for _, p := range points {
		anchor := p.Start
		if period == timeframe.PeriodMonth {
			anchor = p.End.Add(-time.Nanosecond)
		}
		if nominal.Contains(anchor) && p.TotalItems > 0 {
			count++
		}
	}
	return count
}
