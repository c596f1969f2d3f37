package models

import (
	"fmt"
	"strings"
	"time"
)

// AllUnits is the unit focus that sums every unit
const AllUnits UnitKey = "ALL"

// TimeRange selects the window of records shown on the dashboard
type TimeRange string

const (
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
	RangeAll   TimeRange = "all"
)

// ParseTimeRange validates a range name
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeMonth, RangeYear, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("invalid range: %s (available: month, year, all)", s)
}

// FilterCriteria parameterizes aggregation. It is view state only and is
// never sent to the remote store.
type FilterCriteria struct {
	Unit          UnitKey   // a unit or AllUnits
	Range         TimeRange
	SelectedMonth int // 0-11
	SelectedYear  int
}

// DefaultFilter is the aggregate view over all records, with the month and
// year selectors preset to now
func DefaultFilter(now time.Time) FilterCriteria {
	return FilterCriteria{
		Unit:          AllUnits,
		Range:         RangeAll,
		SelectedMonth: int(now.Month()) - 1,
		SelectedYear:  now.Year(),
	}
}

// Validate checks the selectors are usable
func (f FilterCriteria) Validate() error {
	if f.Unit != AllUnits && !f.Unit.Valid() {
		return fmt.Errorf("unknown unit: %s", f.Unit)
	}
	if _, err := ParseTimeRange(string(f.Range)); err != nil {
		return err
	}
	if f.SelectedMonth < 0 || f.SelectedMonth > 11 {
		return fmt.Errorf("month out of range: %d", f.SelectedMonth+1)
	}
	return nil
}

// Focused reports whether u contributes to the headline totals
func (f FilterCriteria) Focused(u UnitKey) bool {
	return f.Unit == AllUnits || f.Unit == "" || f.Unit == u
}

// Matches reports whether a record dated t falls in the selected window
func (f FilterCriteria) Matches(t time.Time) bool {
	switch f.Range {
	case RangeMonth:
		return int(t.Month())-1 == f.SelectedMonth && t.Year() == f.SelectedYear
	case RangeYear:
		return t.Year() == f.SelectedYear
	default:
		return true
	}
}

// Label describes the window, e.g. "March 2025"
func (f FilterCriteria) Label() string {
	switch f.Range {
	case RangeMonth:
		return fmt.Sprintf("%s %d", time.Month(f.SelectedMonth+1), f.SelectedYear)
	case RangeYear:
		return fmt.Sprintf("%d", f.SelectedYear)
	default:
		return "All time"
	}
}
