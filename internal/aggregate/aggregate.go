// Package aggregate derives dashboard figures from a record set.
// Everything here is a pure function of (RecordSet, FilterCriteria).
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

const (
	// MinChartScale keeps bars sane when the filtered set is empty or tiny
	MinChartScale = 1000.0
	// ChartHeadroom leaves space above the tallest bar
	ChartHeadroom = 1.10
	// MinBarPercent keeps zero bars visible as a sliver
	MinBarPercent = 1.0
)

var hundred = decimal.NewFromInt(100)

// Sums is an order/dispatch pair
type Sums struct {
	Order    float64
	Dispatch float64
}

// UnitSums is one unit's share of the filtered set
type UnitSums struct {
	Unit models.UnitKey
	Sums
}

// Result is everything the dashboard renders
type Result struct {
	Filter     models.FilterCriteria
	Records    models.RecordSet // filtered, newest date first
	Totals     Sums             // focused unit, or every unit for ALL
	Breakdown  []UnitSums       // every unit, in models.Units order
	ChartScale float64
	Efficiency float64 // percent, one decimal
}

// Compute runs the whole pipeline
func Compute(records models.RecordSet, f models.FilterCriteria) Result {
	filtered := Filter(records, f)
	totals := Totals(filtered, f.Unit)
	breakdown := Breakdown(filtered)

	return Result{
		Filter:     f,
		Records:    filtered,
		Totals:     totals,
		Breakdown:  breakdown,
		ChartScale: ChartScale(breakdown),
		Efficiency: Efficiency(totals),
	}
}

// Filter selects the records in the criteria's window, sorted by date
// descending. The sort is stable so same-day records keep their order.
// Records with unusable dates only show up in the "all" range, last.
func Filter(records models.RecordSet, f models.FilterCriteria) models.RecordSet {
	type dated struct {
		rec models.Record
		key int64
		ok  bool
	}

	rows := make([]dated, 0, len(records))
	for _, r := range records {
		t, ok := r.Time()
		if f.Range != models.RangeAll && (!ok || !f.Matches(t)) {
			continue
		}
		d := dated{rec: r, ok: ok}
		if ok {
			d.key = t.Unix()
		}
		rows = append(rows, d)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].key > rows[j].key
	})

	out := make(models.RecordSet, len(rows))
	for i, d := range rows {
		out[i] = d.rec
	}
	return out
}

// Totals sums per-unit values, restricted to unit unless it is models.AllUnits
func Totals(records models.RecordSet, unit models.UnitKey) Sums {
	focus := models.FilterCriteria{Unit: unit}
	order, dispatch := decimal.Zero, decimal.Zero

	for _, r := range records {
		for _, u := range models.Units {
			if !focus.Focused(u) {
				continue
			}
			v := r.Unit(u)
			order = order.Add(decimal.NewFromFloat(v.OrderValue))
			dispatch = dispatch.Add(decimal.NewFromFloat(v.DispatchValue))
		}
	}
	return Sums{Order: order.InexactFloat64(), Dispatch: dispatch.InexactFloat64()}
}

// Breakdown sums every unit across records, regardless of focus
func Breakdown(records models.RecordSet) []UnitSums {
	out := make([]UnitSums, len(models.Units))
	for i, u := range models.Units {
		out[i] = UnitSums{Unit: u, Sums: Totals(records, u)}
	}
	return out
}

// ChartScale is the largest breakdown value with headroom, never below
// MinChartScale × ChartHeadroom
func ChartScale(breakdown []UnitSums) float64 {
	peak := MinChartScale
	for _, b := range breakdown {
		if b.Order > peak {
			peak = b.Order
		}
		if b.Dispatch > peak {
			peak = b.Dispatch
		}
	}
	return decimal.NewFromFloat(peak).Mul(decimal.NewFromFloat(ChartHeadroom)).InexactFloat64()
}

// Efficiency is dispatch as a percentage of order, rounded to one decimal.
// It is 0 when nothing was ordered.
func Efficiency(s Sums) float64 {
	if s.Order == 0 {
		return 0
	}
	ratio := decimal.NewFromFloat(s.Dispatch).
		Div(decimal.NewFromFloat(s.Order)).
		Mul(hundred).
		Round(1)
	return ratio.InexactFloat64()
}

// BarPercent is the height of a bar for value on a chart of scale
func BarPercent(value, scale float64) float64 {
	if scale <= 0 {
		return MinBarPercent
	}
	pct := value / scale * 100
	if pct < MinBarPercent {
		return MinBarPercent
	}
	if pct > 100 {
		return 100
	}
	return pct
}
