package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/restocklab/restock-backend/internal/api/v1"
	"github.com/restocklab/restock-backend/internal/core/aggregate"
	"github.com/restocklab/restock-backend/internal/core/compare"
	"github.com/restocklab/restock-backend/internal/core/report"
	"github.com/restocklab/restock-backend/internal/core/storage"
	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// stubStore is a hand-rolled PickStore with pluggable fetch behavior. Each
// fetch records its window so tests can assert what the service asked for.
type stubStore struct {
	dailyRows     func(start, end time.Time) ([]aggregate.Row, error)
	dimensionRows func(dim aggregate.Dimension, start, end time.Time) ([]aggregate.Row, error)
	rangeTotal    func(dim aggregate.Dimension, entityID string, start, end time.Time) (float64, error)
	dimTotals     func(dim aggregate.Dimension, start, end time.Time) ([]storage.DimensionTotal, error)

	mu         sync.Mutex // fetches fan out concurrently
	dailyCalls []timeframe.Window
}

func (s *stubStore) SavePickEntry(context.Context, *v1.PickEntry) error { return nil }

func (s *stubStore) FetchDailyRows(_ context.Context, _ string, start, end time.Time) ([]aggregate.Row, error) {
	s.mu.Lock()
	s.dailyCalls = append(s.dailyCalls, timeframe.Window{Start: start, End: end})
	s.mu.Unlock()
	if s.dailyRows == nil {
		return nil, nil
	}
	return s.dailyRows(start, end)
}

func (s *stubStore) FetchDimensionRows(_ context.Context, _ string, dim aggregate.Dimension, start, end time.Time) ([]aggregate.Row, error) {
	if s.dimensionRows == nil {
		return nil, nil
	}
	return s.dimensionRows(dim, start, end)
}

func (s *stubStore) FetchRangeTotal(_ context.Context, _ string, dim aggregate.Dimension, entityID string, start, end time.Time) (float64, error) {
	if s.rangeTotal == nil {
		return 0, nil
	}
	return s.rangeTotal(dim, entityID, start, end)
}

func (s *stubStore) FetchDimensionTotals(_ context.Context, _ string, dim aggregate.Dimension, start, end time.Time) ([]storage.DimensionTotal, error) {
	if s.dimTotals == nil {
		return nil, nil
	}
	return s.dimTotals(dim, start, end)
}

func newTestService(store storage.PickStore, now time.Time) *Service {
	svc := NewService(store, nil)
	svc.nowFn = func() time.Time { return now }
	return svc
}

// requireSameInstant compares two times as instants. The service builds
// window boundaries in the request location while fixtures use UTC, so a
// representation-sensitive require.Equal would fail on the Location alone.
func requireSameInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	require.True(t, got.Equal(want), "got %v, want %v", got, want)
}

// Wednesday in the week after the 2024 US spring-forward. The ISO week in
// America/Chicago runs Mon Mar 11 00:00 CDT — 2024-03-11T05:00:00Z.
var (
	chicagoNow       = time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC)
	chicagoWeekStart = time.Date(2024, 3, 11, 5, 0, 0, 0, time.UTC)
	chicagoWeekEnd   = time.Date(2024, 3, 18, 5, 0, 0, 0, time.UTC)
)

func chicagoQuery() Query {
	return Query{CompanyID: "co-1", TimeZone: "America/Chicago", Period: "week"}
}

func TestService_DailyStats(t *testing.T) {
	store := &stubStore{
		dailyRows: func(start, end time.Time) ([]aggregate.Row, error) {
			return []aggregate.Row{
				{OccurredAt: chicagoWeekStart.Add(10 * time.Hour), Count: 10}, // Mon
				{OccurredAt: chicagoWeekStart.Add(30 * time.Hour), Count: 5},  // Tue
				{OccurredAt: chicagoWeekEnd.Add(2 * time.Hour), Count: 7},     // trailing Mon (widened day)
			}, nil
		},
		dimensionRows: func(dim aggregate.Dimension, start, end time.Time) ([]aggregate.Row, error) {
			if dim != aggregate.DimensionSKU {
				t.Errorf("segment fetch dimension = %q, want sku", dim)
			}
			return []aggregate.Row{
				{OccurredAt: chicagoWeekStart.Add(10 * time.Hour), Count: 6, DimensionID: "sku-a", DimensionLabel: "Cola"},
			}, nil
		},
	}
	svc := newTestService(store, chicagoNow)

	stats, err := svc.DailyStats(context.Background(), chicagoQuery())
	require.NoError(t, err)

	require.Equal(t, "America/Chicago", stats.TimeZone)
	requireSameInstant(t, chicagoWeekStart, stats.WindowStart)
	requireSameInstant(t, chicagoWeekEnd, stats.WindowEnd)

	// Nominal week plus one trailing day.
	require.Len(t, stats.Points, 8)
	require.Equal(t, float64(10), stats.Points[0].TotalItems)
	require.Equal(t, float64(5), stats.Points[1].TotalItems)
	require.Equal(t, float64(7), stats.Points[7].TotalItems)

	// Per-SKU segments reconcile against the authoritative Monday total.
	require.Equal(t, []aggregate.Segment{
		{ID: "sku-a", FriendlyName: "Cola", TotalItems: 6},
		{ID: aggregate.OtherSegmentID, FriendlyName: aggregate.OtherSegmentName, TotalItems: 4},
	}, stats.Points[0].Segments)

	// The widened day contributes to the chart but not to the averages.
	require.Equal(t, float64(15), stats.PeriodTotal)
	require.Equal(t, 2, stats.PositiveDays)
	require.Equal(t, 7.5, stats.DailyAverage)

	// Fetch covers the full widened chart range.
	require.Len(t, store.dailyCalls, 1)
	requireSameInstant(t, chicagoWeekStart, store.dailyCalls[0].Start)
	requireSameInstant(t, chicagoWeekEnd.AddDate(0, 0, 1), store.dailyCalls[0].End)
}

func TestService_DailyStats_NoActivity(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	stats, err := svc.DailyStats(context.Background(), chicagoQuery())
	require.NoError(t, err)
	require.Equal(t, float64(0), stats.PeriodTotal)
	require.Equal(t, 0, stats.PositiveDays)
	require.Equal(t, float64(0), stats.DailyAverage)
}

func TestService_ResolveQueryErrors(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	tests := []struct {
		name  string
		query Query
	}{
		{"missing company", Query{TimeZone: "UTC"}},
		{"unknown timezone", Query{CompanyID: "co-1", TimeZone: "Mars/Olympus_Mons"}},
		{"unknown period", Query{CompanyID: "co-1", Period: "fortnight"}},
		{"malformed at", Query{CompanyID: "co-1", At: "yesterday"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PeriodComparison(context.Background(), tc.query, 2)
			require.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestService_EntityStats(t *testing.T) {
	previousWeekStart := chicagoWeekStart.AddDate(0, 0, -7).Add(time.Hour) // Mar 4 00:00 CST = 06:00Z

	store := &stubStore{
		rangeTotal: func(dim aggregate.Dimension, entityID string, start, end time.Time) (float64, error) {
			if dim != aggregate.DimensionMachine || entityID != "mach-7" {
				t.Errorf("fetch = (%q, %q), want (machine, mach-7)", dim, entityID)
			}
			switch {
			case start.Equal(chicagoWeekStart):
				if !end.Equal(chicagoWeekEnd) {
					t.Errorf("current window end = %v, want %v", end, chicagoWeekEnd)
				}
				return 12, nil
			case start.Equal(previousWeekStart):
				if !end.Equal(chicagoWeekStart) {
					t.Errorf("previous window end = %v, want %v", end, chicagoWeekStart)
				}
				return 10, nil
			}
			t.Errorf("unexpected window start %v", start)
			return 0, nil
		},
	}
	svc := newTestService(store, chicagoNow)

	stats, err := svc.EntityStats(context.Background(), chicagoQuery(), aggregate.DimensionMachine, "mach-7")
	require.NoError(t, err)
	require.Equal(t, float64(12), stats.CurrentTotal)
	require.Equal(t, float64(10), stats.PreviousTotal)
	require.NotNil(t, stats.Change)
	require.Equal(t, float64(20), stats.Change.Value)
	require.Equal(t, compare.TrendUp, stats.Change.Trend)
}

func TestService_EntityStats_UndefinedChange(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	stats, err := svc.EntityStats(context.Background(), chicagoQuery(), aggregate.DimensionSKU, "sku-1")
	require.NoError(t, err)
	require.Nil(t, stats.Change) // 0 vs 0 is undefined, not "no change"
}

func TestService_EntityStats_InvalidInput(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	_, err := svc.EntityStats(context.Background(), chicagoQuery(), aggregate.Dimension("route"), "x")
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.EntityStats(context.Background(), chicagoQuery(), aggregate.DimensionSKU, "")
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestService_PeriodComparison(t *testing.T) {
	// Thursday 12:00 CDT: 84h into a 168h week, so progress is exactly 0.5
	// and every previous window is truncated to its first 84 hours.
	now := time.Date(2024, 3, 14, 17, 0, 0, 0, time.UTC)
	elapsed := 84 * time.Hour

	prev1Start := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)  // Mon Mar 4 00:00 CST
	prev2Start := time.Date(2024, 2, 26, 6, 0, 0, 0, time.UTC) // Mon Feb 26 00:00 CST

	store := &stubStore{
		dailyRows: func(start, end time.Time) ([]aggregate.Row, error) {
			switch {
			case start.Equal(chicagoWeekStart):
				return []aggregate.Row{{OccurredAt: start.Add(time.Hour), Count: 70}}, nil
			case start.Equal(prev1Start):
				return []aggregate.Row{{OccurredAt: start.Add(time.Hour), Count: 50}}, nil
			case start.Equal(prev2Start):
				return []aggregate.Row{{OccurredAt: start.Add(time.Hour), Count: 30}}, nil
			}
			t.Errorf("unexpected window start %v", start)
			return nil, nil
		},
	}
	svc := newTestService(store, now)

	stats, err := svc.PeriodComparison(context.Background(), chicagoQuery(), 2)
	require.NoError(t, err)

	cmp := stats.Comparison
	require.Equal(t, float64(70), cmp.CurrentTotal)
	require.Equal(t, []float64{50, 30}, cmp.PreviousTotals)
	require.Equal(t, float64(40), cmp.PreviousAverage)
	require.Equal(t, float64(30), cmp.DeltaFromPreviousAverage)
	require.NotNil(t, cmp.DeltaPercentage)
	require.Equal(t, float64(75), *cmp.DeltaPercentage)
	require.Equal(t, 0.5, cmp.ProgressFraction)

	// Every fetched window was truncated to the same elapsed duration.
	require.Len(t, store.dailyCalls, 3)
	for _, w := range store.dailyCalls {
		require.Equal(t, elapsed, w.End.Sub(w.Start))
	}
}

func TestService_PeriodComparison_CountBounds(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	// Zero falls back to the default count.
	stats, err := svc.PeriodComparison(context.Background(), chicagoQuery(), 0)
	require.NoError(t, err)
	require.Len(t, stats.Comparison.PreviousTotals, defaultPreviousPeriods)

	_, err = svc.PeriodComparison(context.Background(), chicagoQuery(), maxPreviousPeriods+1)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestService_Momentum(t *testing.T) {
	store := &stubStore{
		dimTotals: func(dim aggregate.Dimension, start, end time.Time) ([]storage.DimensionTotal, error) {
			if dim != aggregate.DimensionSKU {
				t.Errorf("momentum fetch dimension = %q, want sku", dim)
			}
			if start.Equal(chicagoWeekStart) {
				return []storage.DimensionTotal{
					{ID: "sku-a", Name: "Cola", Total: 12},
					{ID: "sku-b", Name: "Chips", Total: 5},
				}, nil
			}
			return []storage.DimensionTotal{
				{ID: "sku-a", Name: "Cola", Total: 10},
				{ID: "sku-b", Name: "Chips", Total: 7},
				{ID: "sku-c", Name: "Gum", Total: 4},
			}, nil
		},
	}
	svc := newTestService(store, chicagoNow)

	stats, err := svc.Momentum(context.Background(), chicagoQuery(), aggregate.DimensionSKU)
	require.NoError(t, err)

	m := stats.Momentum
	require.NotNil(t, m.Up)
	require.Equal(t, "sku-a", m.Up.EntityID) // delta +2
	require.Equal(t, float64(2), m.Up.Delta)
	require.NotNil(t, m.Down)
	require.Equal(t, "sku-c", m.Down.EntityID) // delta -4, steeper than sku-b's -2
	require.Equal(t, float64(-4), m.Down.Delta)
	// |−4| beats |+2| for the default slot.
	require.Equal(t, compare.DirectionDown, m.DefaultSelection)
}

func TestService_Momentum_NoCandidates(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	stats, err := svc.Momentum(context.Background(), chicagoQuery(), aggregate.DimensionMachine)
	require.NoError(t, err)
	require.Nil(t, stats.Momentum.Up)
	require.Nil(t, stats.Momentum.Down)
	require.Equal(t, compare.DirectionUp, stats.Momentum.DefaultSelection)
}

func TestService_Breakdown_FocusResolvesDimension(t *testing.T) {
	var fetchedDim aggregate.Dimension
	store := &stubStore{
		dimensionRows: func(dim aggregate.Dimension, start, end time.Time) ([]aggregate.Row, error) {
			fetchedDim = dim
			return nil, nil
		},
	}
	svc := newTestService(store, chicagoNow)

	// Machine focus groups by SKU and exposes only the sku filter.
	stats, err := svc.Breakdown(context.Background(), chicagoQuery(), "", "mach-7", "", "")
	require.NoError(t, err)
	require.Equal(t, aggregate.DimensionSKU, stats.Dimension)
	require.Equal(t, []aggregate.Dimension{aggregate.DimensionSKU}, stats.Filters)
	require.Equal(t, aggregate.DimensionSKU, fetchedDim)
	require.Len(t, stats.Points, 7) // week period, day buckets, no widening
}

func TestService_Breakdown_PresetNotFound(t *testing.T) {
	svc := newTestService(&stubStore{}, chicagoNow)

	_, err := svc.Breakdown(context.Background(), chicagoQuery(), "", "", "", "weekly_by_sku")
	require.ErrorIs(t, err, report.ErrPresetNotFound)
}

func TestMergeCandidates(t *testing.T) {
	current := []storage.DimensionTotal{
		{ID: "a", Name: "A", Total: 5},
		{ID: "b", Name: "B", Total: 0},
	}
	previous := []storage.DimensionTotal{
		{ID: "a", Name: "A (old)", Total: 3},
		{ID: "c", Name: "C", Total: 2},
	}

	merged := mergeCandidates(current, previous)
	require.Equal(t, []compare.EntityTotal{
		{EntityID: "a", FriendlyName: "A", CurrentTotal: 5, PreviousTotal: 3},
		{EntityID: "c", FriendlyName: "C", PreviousTotal: 2},
	}, merged)
}
