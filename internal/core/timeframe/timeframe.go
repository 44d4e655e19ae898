package timeframe

import (
	"fmt"
	"time"
)

// DayLabelLayout is the calendar-day label format used across the analytics
// engine ("YYYY-MM-DD" as observed in the company's timezone).
const DayLabelLayout = "2006-01-02"

// PeriodType selects the calendar-aligned window used for trend charts and
// period-over-period comparisons.
type PeriodType string

const (
	PeriodWeek    PeriodType = "week"    // Monday-start ISO week
	PeriodMonth   PeriodType = "month"   // calendar month
	PeriodQuarter PeriodType = "quarter" // calendar quarter
)

// ParsePeriodType validates a period string from the request layer.
func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case PeriodWeek, PeriodMonth, PeriodQuarter:
		return PeriodType(s), nil
	}
	return "", fmt.Errorf("invalid period type %q (must be week, month, or quarter)", s)
}

// DayRange is one calendar day's [Start, End) UTC instants as observed in a
// timezone. Across DST transitions the interval may span 23h or 25h instead
// of 24h.
type DayRange struct {
	Start    time.Time
	End      time.Time
	Label    string // YYYY-MM-DD
	TimeZone string
}

// Window is a half-open [Start, End) calendar-aligned period window.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the window's total span.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Day resolves the calendar day dayOffset days away from reference as
// observed in loc. dayOffset may be negative (past), zero (the reference
// day), or positive (future, e.g. tomorrow for forward-looking views).
//
// time.Date normalizes out-of-range day numbers and re-resolves the zone
// offset for the specific date, so boundaries stay correct across DST
// transitions.
func Day(loc *time.Location, reference time.Time, dayOffset int) DayRange {
	year, month, day := reference.In(loc).Date()
	start := time.Date(year, month, day+dayOffset, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+dayOffset+1, 0, 0, 0, 0, loc)
	return DayRange{
		Start:    start,
		End:      end,
		Label:    start.Format(DayLabelLayout),
		TimeZone: loc.String(),
	}
}

// DayLabel formats an instant as its calendar-day label in loc.
func DayLabel(loc *time.Location, t time.Time) string {
	return t.In(loc).Format(DayLabelLayout)
}

// WeekStart returns local midnight of the Monday starting the ISO week that
// contains reference, as observed in loc.
func WeekStart(loc *time.Location, reference time.Time) time.Time {
	local := reference.In(loc)
	// Go weekdays are Sunday=0..Saturday=6; shift so Monday=0.
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	year, month, day := local.Date()
	return time.Date(year, month, day-daysSinceMonday, 0, 0, 0, 0, loc)
}

// MonthWindow returns the calendar month monthsBack months before the one
// containing reference. Arithmetic runs in month-index space
// (year*12 + month-1) so negative offsets roll over year boundaries.
func MonthWindow(loc *time.Location, reference time.Time, monthsBack int) Window {
	local := reference.In(loc)
	index := local.Year()*12 + int(local.Month()) - 1 - monthsBack
	return Window{
		Start: monthIndexStart(loc, index),
		End:   monthIndexStart(loc, index+1),
	}
}

// QuarterWindow returns the calendar quarter quartersBack quarters before
// the one containing reference. Quarter index is year*4 + (month-1)/3.
func QuarterWindow(loc *time.Location, reference time.Time, quartersBack int) Window {
	local := reference.In(loc)
	index := local.Year()*4 + (int(local.Month())-1)/3 - quartersBack
	year, quarter := index/4, index%4
	return Window{
		Start: time.Date(year, time.Month(quarter*3+1), 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.Month(quarter*3+4), 1, 0, 0, 0, 0, loc),
	}
}

// PeriodWindow returns the window offset periods back from the one
// containing reference. offset=0 is the current period. Successive offsets
// are contiguous: PeriodWindow(k).End == PeriodWindow(k-1).Start.
func PeriodWindow(period PeriodType, loc *time.Location, reference time.Time, offset int) Window {
	switch period {
	case PeriodWeek:
		start := WeekStart(loc, reference).AddDate(0, 0, -7*offset)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case PeriodQuarter:
		return QuarterWindow(loc, reference, offset)
	default:
		return MonthWindow(loc, reference, offset)
	}
}

func monthIndexStart(loc *time.Location, index int) time.Time {
	return time.Date(index/12, time.Month(index%12+1), 1, 0, 0, 0, 0, loc)
}
