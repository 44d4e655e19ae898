// Package analytics is the route layer over the aggregation engine: each
// endpoint resolves the request's calendar parameters, fetches rows from the
// pick store (concurrently where a comparison needs several operands), and
// calls the pure engine packages. The engine never sees a query string or a
// database handle.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
	"github.com/restocklab/restock-backend/internal/core/chart"
	"github.com/restocklab/restock-backend/internal/core/compare"
	"github.com/restocklab/restock-backend/internal/core/report"
	"github.com/restocklab/restock-backend/internal/core/storage"
	"github.com/restocklab/restock-backend/internal/core/timeframe"
)

// ErrInvalidQuery marks request parameter errors so the handler layer can
// map them to 400 instead of 500.
var ErrInvalidQuery = errors.New("invalid query")

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

const (
	defaultPreviousPeriods = 3
	maxPreviousPeriods     = 12
)

// Service computes analytics responses from stored pick entries.
type Service struct {
	store   storage.PickStore
	presets report.PresetRepository
	nowFn   func() time.Time // injectable for deterministic tests
}

// NewService creates the analytics service. presets may be nil when no
// preset directory is configured; the breakdown endpoint then rejects
// preset queries as not found.
func NewService(store storage.PickStore, presets report.PresetRepository) *Service {
	if store == nil {
		panic("analytics: store must not be nil")
	}
	return &Service{
		store:   store,
		presets: presets,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Query carries the calendar parameters every analytics endpoint accepts.
// Zero values select the defaults: UTC, week period, service clock.
type Query struct {
	CompanyID string
	TimeZone  string
	Period    string
	At        string // RFC3339 reference instant
}

// resolved is a Query after validation.
type resolved struct {
	companyID string
	loc       *time.Location
	period    timeframe.PeriodType
	now       time.Time
}

func (s *Service) resolve(q Query) (resolved, error) {
	if q.CompanyID == "" {
		return resolved{}, invalidQueryf("company_id is required")
	}

	tz := q.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return resolved{}, invalidQueryf("unknown timezone %q", tz)
	}

	period := timeframe.PeriodWeek
	if q.Period != "" {
		period, err = timeframe.ParsePeriodType(q.Period)
		if err != nil {
			return resolved{}, fmt.Errorf("%w: %s", ErrInvalidQuery, err)
		}
	}

	now := s.nowFn()
	if q.At != "" {
		now, err = time.Parse(time.RFC3339, q.At)
		if err != nil {
			return resolved{}, invalidQueryf("invalid 'at' instant %q (must be RFC3339)", q.At)
		}
	}

	return resolved{companyID: q.CompanyID, loc: loc, period: period, now: now}, nil
}

// DailyStats builds the week totals chart: day buckets over the current ISO
// week widened by one trailing day, per-SKU segments reconciled against the
// authoritative day totals, and the daily average over in-period days with
// activity.
func (s *Service) DailyStats(ctx context.Context, q Query) (*DailyStats, error) {
	q.Period = string(timeframe.PeriodWeek) // daily chart is always a week view
	r, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	window := timeframe.PeriodWindow(r.period, r.loc, r.now, 0)
	chartEnd := timeframe.Day(r.loc, window.End, 0).End // one trailing day
	buckets := chart.Build(r.period, window.Start, chartEnd, r.loc)
	fetchEnd := buckets[len(buckets)-1].End

	var totalRows, skuRows []aggregate.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalRows, err = s.store.FetchDailyRows(gctx, r.companyID, window.Start, fetchEnd)
		return err
	})
	g.Go(func() error {
		var err error
		skuRows, err = s.store.FetchDimensionRows(gctx, r.companyID, aggregate.DimensionSKU, window.Start, fetchEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching daily stats rows: %w", err)
	}

	totals := aggregate.Fold(buckets, totalRows, r.loc, false)
	segmented := aggregate.Fold(buckets, skuRows, r.loc, true)
	points := aggregate.Reconcile(totals.Points, segmented.Points)

	var periodTotal float64
	for _, p := range points {
		if window.Contains(p.Start) {
			periodTotal += p.TotalItems
		}
	}
	positive := aggregate.PositiveBucketCount(points, window, r.period)
	var average float64
	if positive > 0 {
		average = periodTotal / float64(positive)
	}

	return &DailyStats{
		CompanyID:    r.companyID,
		TimeZone:     r.loc.String(),
		Period:       r.period,
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		Points:       points,
		DailyTotals:  totals.DailyTotals,
		PeriodTotal:  periodTotal,
		PositiveDays: positive,
		DailyAverage: average,
	}, nil
}

// EntityStats compares one entity's current period total against the full
// previous period, with the simple percentage-change classification.
func (s *Service) EntityStats(ctx context.Context, q Query, dim aggregate.Dimension, entityID string) (*EntityStats, error) {
	r, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	if !aggregate.ValidDimension(dim) {
		return nil, invalidQueryf("unknown dimension %q", dim)
	}
	if entityID == "" {
		return nil, invalidQueryf("entity_id is required")
	}

	current := timeframe.PeriodWindow(r.period, r.loc, r.now, 0)
	previous := timeframe.PeriodWindow(r.period, r.loc, r.now, 1)

	var currentTotal, previousTotal float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentTotal, err = s.store.FetchRangeTotal(gctx, r.companyID, dim, entityID, current.Start, current.End)
		return err
	})
	g.Go(func() error {
		var err error
		previousTotal, err = s.store.FetchRangeTotal(gctx, r.companyID, dim, entityID, previous.Start, previous.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching entity totals: %w", err)
	}

	return &EntityStats{
		CompanyID:     r.companyID,
		Dimension:     dim,
		EntityID:      entityID,
		TimeZone:      r.loc.String(),
		Period:        r.period,
		CurrentTotal:  currentTotal,
		PreviousTotal: previousTotal,
		Change:        compare.ChangeBetween(currentTotal, previousTotal),
	}, nil
}

// PeriodComparison compares the current (partial) period against the
// average of previousCount earlier periods truncated to the same elapsed
// progress. All window totals are fetched concurrently.
func (s *Service) PeriodComparison(ctx context.Context, q Query, previousCount int) (*ComparisonStats, error) {
	r, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	if previousCount <= 0 {
		previousCount = defaultPreviousPeriods
	}
	if previousCount > maxPreviousPeriods {
		return nil, invalidQueryf("previous period count %d exceeds maximum %d", previousCount, maxPreviousPeriods)
	}

	current, previous, progress := compare.ProgressWindows(r.period, r.loc, r.now, previousCount)

	var currentTotal float64
	previousTotals := make([]float64, len(previous))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentTotal, err = s.windowTotal(gctx, r.companyID, current)
		return err
	})
	for i, w := range previous {
		g.Go(func() error {
			var err error
			previousTotals[i], err = s.windowTotal(gctx, r.companyID, w)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching comparison totals: %w", err)
	}

	return &ComparisonStats{
		CompanyID:   r.companyID,
		TimeZone:    r.loc.String(),
		Period:      r.period,
		WindowStart: current.Start,
		WindowEnd:   current.End,
		Comparison:  compare.Periods(currentTotal, previousTotals, progress),
	}, nil
}

// windowTotal sums all of a company's pick quantities over one window.
func (s *Service) windowTotal(ctx context.Context, companyID string, w timeframe.Window) (float64, error) {
	rows, err := s.store.FetchDailyRows(ctx, companyID, w.Start, w.End)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, row := range rows {
		total += row.Count
	}
	return total, nil
}

// Momentum selects the up and down leaders of one dimension by comparing
// the current (progress-truncated) period against the equally truncated
// previous period. Both candidate sets are fetched concurrently.
func (s *Service) Momentum(ctx context.Context, q Query, dim aggregate.Dimension) (*MomentumStats, error) {
	r, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	if !aggregate.ValidDimension(dim) {
		return nil, invalidQueryf("unknown dimension %q", dim)
	}

	current, previous, _ := compare.ProgressWindows(r.period, r.loc, r.now, 1)

	var currentTotals, previousTotals []storage.DimensionTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentTotals, err = s.store.FetchDimensionTotals(gctx, r.companyID, dim, current.Start, current.End)
		return err
	})
	g.Go(func() error {
		var err error
		previousTotals, err = s.store.FetchDimensionTotals(gctx, r.companyID, dim, previous[0].Start, previous[0].End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching momentum candidates: %w", err)
	}

	candidates := mergeCandidates(currentTotals, previousTotals)
	up := compare.Rank(candidates, compare.DirectionUp)
	down := compare.Rank(candidates, compare.DirectionDown)

	return &MomentumStats{
		CompanyID: r.companyID,
		Dimension: dim,
		TimeZone:  r.loc.String(),
		Period:    r.period,
		Momentum:  compare.Leaders(up, down),
	}, nil
}

// mergeCandidates joins per-window dimension totals on entity ID, keeping
// entities with at least one non-zero total. The friendly name comes from
// whichever window saw the entity first (current wins).
func mergeCandidates(current, previous []storage.DimensionTotal) []compare.EntityTotal {
	byID := make(map[string]int)
	var out []compare.EntityTotal

	for _, t := range current {
		byID[t.ID] = len(out)
		out = append(out, compare.EntityTotal{
			EntityID:     t.ID,
			FriendlyName: t.Name,
			CurrentTotal: t.Total,
		})
	}
	for _, t := range previous {
		if i, ok := byID[t.ID]; ok {
			out[i].PreviousTotal = t.Total
			continue
		}
		byID[t.ID] = len(out)
		out = append(out, compare.EntityTotal{
			EntityID:      t.ID,
			FriendlyName:  t.Name,
			PreviousTotal: t.Total,
		})
	}

	filtered := out[:0]
	for _, e := range out {
		if e.CurrentTotal != 0 || e.PreviousTotal != 0 {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Breakdown builds a bucketed series grouped by the dimension the focus
// decision table resolves from the supplied focus entity IDs. A preset name
// supplies period/timezone defaults; explicit query parameters win.
func (s *Service) Breakdown(ctx context.Context, q Query, skuID, machineID, locationID, presetName string) (*BreakdownStats, error) {
	var preset *report.Preset
	if presetName != "" {
		if s.presets == nil {
			return nil, fmt.Errorf("%w: %q", report.ErrPresetNotFound, presetName)
		}
		var err error
		preset, err = s.presets.Get(ctx, presetName)
		if err != nil {
			return nil, err
		}
		if q.Period == "" {
			q.Period = string(preset.Period)
		}
		if q.TimeZone == "" {
			q.TimeZone = preset.TimeZone
		}
	}

	r, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	plan := compare.ResolveBreakdown(skuID, machineID, locationID)
	if skuID == "" && machineID == "" && locationID == "" && preset != nil && preset.Dimension != "" {
		// No focus: the preset's curated dimension replaces the default.
		plan.Dimension = preset.Dimension
	}

	window := timeframe.PeriodWindow(r.period, r.loc, r.now, 0)
	buckets := chart.Build(r.period, window.Start, window.End, r.loc)
	fetchEnd := buckets[len(buckets)-1].End

	var totalRows, dimRows []aggregate.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalRows, err = s.store.FetchDailyRows(gctx, r.companyID, window.Start, fetchEnd)
		return err
	})
	g.Go(func() error {
		var err error
		dimRows, err = s.store.FetchDimensionRows(gctx, r.companyID, plan.Dimension, window.Start, fetchEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching breakdown rows: %w", err)
	}

	totals := aggregate.Fold(buckets, totalRows, r.loc, false)
	segmented := aggregate.Fold(buckets, dimRows, r.loc, true)
	points := aggregate.Reconcile(totals.Points, segmented.Points)

	return &BreakdownStats{
		CompanyID:   r.companyID,
		TimeZone:    r.loc.String(),
		Period:      r.period,
		Preset:      presetName,
		Dimension:   plan.Dimension,
		Filters:     plan.Filters,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Points:      points,
	}, nil
}
