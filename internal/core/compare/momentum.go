package compare

import (
	"math"
	"sort"

	"github.com/restocklab/restock-backend/internal/core/aggregate"
)

// Direction of a momentum leader slot.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// EntityTotal is one entity's current and previous period totals, already
// filtered by the caller to entities with at least one non-zero total.
type EntityTotal struct {
	EntityID      string
	FriendlyName  string
	CurrentTotal  float64
	PreviousTotal float64
}

// Delta is the entity's period-over-period change.
func (e EntityTotal) Delta() float64 {
	return e.CurrentTotal - e.PreviousTotal
}

// Leader is the top entity for one momentum direction.
type Leader struct {
	EntityID      string  `json:"entityId"`
	FriendlyName  string  `json:"friendlyName,omitempty"`
	CurrentTotal  float64 `json:"currentTotal"`
	PreviousTotal float64 `json:"previousTotal"`
	Delta         float64 `json:"delta"`
}

// Momentum carries both direction slots plus the default selection the
// dashboard opens with.
type Momentum struct {
	Up               *Leader   `json:"up"`
	Down             *Leader   `json:"down"`
	DefaultSelection Direction `json:"defaultSelection"`
}

// Rank orders candidates by delta: descending for the up direction,
// ascending for down. Ties keep a stable order by entity ID so results are
// deterministic across requests.
func Rank(candidates []EntityTotal, dir Direction) []EntityTotal {
	ranked := append([]EntityTotal(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := ranked[i].Delta(), ranked[j].Delta()
		if di == dj {
			return ranked[i].EntityID < ranked[j].EntityID
		}
		if dir == DirectionDown {
			return di < dj
		}
		return di > dj
	})
	return ranked
}

// Leaders sanitizes each direction's top-1 candidate and picks the default
// selection. An up candidate with a negative delta is discarded, as is a
// down candidate with a non-negative delta. When both directions survive,
// the larger absolute delta wins the default slot, ties favoring up; when
// neither survives, the default is up with an empty payload.
func Leaders(upRanked, downRanked []EntityTotal) Momentum {
	m := Momentum{DefaultSelection: DirectionUp}

	if len(upRanked) > 0 {
		if top := upRanked[0]; top.Delta() >= 0 {
			m.Up = toLeader(top)
		}
	}
	if len(downRanked) > 0 {
		if top := downRanked[0]; top.Delta() < 0 {
			m.Down = toLeader(top)
		}
	}

	switch {
	case m.Up != nil && m.Down != nil:
		if math.Abs(m.Down.Delta) > math.Abs(m.Up.Delta) {
			m.DefaultSelection = DirectionDown
		}
	case m.Down != nil:
		m.DefaultSelection = DirectionDown
	}
	return m
}

func toLeader(e EntityTotal) *Leader {
	return &Leader{
		EntityID:      e.EntityID,
		FriendlyName:  e.FriendlyName,
		CurrentTotal:  e.CurrentTotal,
		PreviousTotal: e.PreviousTotal,
		Delta:         e.Delta(),
	}
}

// BreakdownPlan resolves which dimension a breakdown chart groups by and
// which filter dimensions the UI may expose, given the focused entity.
type BreakdownPlan struct {
	Dimension aggregate.Dimension   `json:"dimension"`
	Filters   []aggregate.Dimension `json:"filters"`
}

// ResolveBreakdown applies the focus decision table. Only one focus entity
// may be active; when a caller errantly supplies more than one, the first
// match wins in the order sku > machine > location.
//
//	focus none     -> group by sku,     filters sku, machine, location
//	focus sku      -> group by machine, filters machine, location
//	focus machine  -> group by sku,     filters sku
//	focus location -> group by machine, filters machine, sku
func ResolveBreakdown(skuID, machineID, locationID string) BreakdownPlan {
	switch {
	case skuID != "":
		return BreakdownPlan{
			Dimension: aggregate.DimensionMachine,
			Filters:   []aggregate.Dimension{aggregate.DimensionMachine, aggregate.DimensionLocation},
		}
	case machineID != "":
		return BreakdownPlan{
			Dimension: aggregate.DimensionSKU,
			Filters:   []aggregate.Dimension{aggregate.DimensionSKU},
		}
	case locationID != "":
		return BreakdownPlan{
			Dimension: aggregate.DimensionMachine,
			Filters:   []aggregate.Dimension{aggregate.DimensionMachine, aggregate.DimensionSKU},
		}
	default:
		return BreakdownPlan{
			Dimension: aggregate.DimensionSKU,
			Filters: []aggregate.Dimension{
				aggregate.DimensionSKU, aggregate.DimensionMachine, aggregate.DimensionLocation,
			},
		}
	}
}
