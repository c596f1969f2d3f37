package models

import "time"

// Form is the entry form state for one day's submission
type Form struct {
	Date  string
	Units map[UnitKey]UnitValue
}

// NewForm returns an empty form dated today
func NewForm(now time.Time) *Form {
	f := &Form{Date: now.Format(DateLayout)}
	f.Reset()
	return f
}

// Set records the figures for one unit
func (f *Form) Set(u UnitKey, order, dispatch float64) {
	if f.Units == nil {
		f.Units = make(map[UnitKey]UnitValue, len(Units))
	}
	f.Units[u] = UnitValue{OrderValue: sanitize(order), DispatchValue: sanitize(dispatch)}
}

// Totals sums the form across all units
func (f *Form) Totals() (order, dispatch float64) {
	for _, u := range Units {
		v := f.Units[u]
		order += v.OrderValue
		dispatch += v.DispatchValue
	}
	return order, dispatch
}

// Reset zeroes every unit. The posting date is kept.
func (f *Form) Reset() {
	f.Units = make(map[UnitKey]UnitValue, len(Units))
	for _, u := range Units {
		f.Units[u] = UnitValue{}
	}
}
