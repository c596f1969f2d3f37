package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for Record.Date
const DateLayout = "2006-01-02"

// UnitKey identifies one manufacturing unit
type UnitKey string

const (
	UnitSUR UnitKey = "SUR"
	UnitKDC UnitKey = "KDC"
	UnitCKU UnitKey = "CKU"
	UnitEMB UnitKey = "EMB"
	UnitLMN UnitKey = "LMN"
)

// Units is the closed set of unit keys, in column order
var Units = []UnitKey{UnitSUR, UnitKDC, UnitCKU, UnitEMB, UnitLMN}

// ParseUnitKey validates a unit code (case-insensitive)
func ParseUnitKey(s string) (UnitKey, error) {
	key := UnitKey(strings.ToUpper(strings.TrimSpace(s)))
	if key.Valid() {
		return key, nil
	}
	return "", fmt.Errorf("unknown unit: %s (available: %s)", s, joinUnits())
}

// Valid reports whether k is one of Units
func (k UnitKey) Valid() bool {
	for _, u := range Units {
		if u == k {
			return true
		}
	}
	return false
}

func joinUnits() string {
	names := make([]string, len(Units))
	for i, u := range Units {
		names[i] = string(u)
	}
	return strings.Join(names, ", ")
}

// UnitValue is one unit's activity for one day
type UnitValue struct {
	OrderValue    float64 `json:"orderValue"`
	DispatchValue float64 `json:"dispatchValue"`
}

func (v *UnitValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderValue    json.RawMessage `json:"orderValue"`
		DispatchValue json.RawMessage `json:"dispatchValue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// A non-object cell (string, number, null) is treated as an empty unit
		*v = UnitValue{}
		return nil
	}
	v.OrderValue = coerceAmount(raw.OrderValue)
	v.DispatchValue = coerceAmount(raw.DispatchValue)
	return nil
}

// Record is one day's submission across all units
type Record struct {
	ID            string                `json:"id"`
	Date          string                `json:"date"` // YYYY-MM-DD
	Units         map[UnitKey]UnitValue `json:"units"`
	TotalOrder    float64               `json:"totalOrder"`
	TotalDispatch float64               `json:"totalDispatch"`
}

// NewRecord builds a record stamped with now. Every unit is present and the
// totals are computed once here; they are never recomputed on read.
func NewRecord(now time.Time, date string, units map[UnitKey]UnitValue) Record {
	r := Record{
		ID:    strconv.FormatInt(now.UnixMilli(), 10),
		Date:  date,
		Units: make(map[UnitKey]UnitValue, len(Units)),
	}
	for _, u := range Units {
		v := units[u]
		v.OrderValue = sanitize(v.OrderValue)
		v.DispatchValue = sanitize(v.DispatchValue)
		r.Units[u] = v
		r.TotalOrder += v.OrderValue
		r.TotalDispatch += v.DispatchValue
	}
	return r
}

// Unit returns the value for a unit, zero if absent
func (r Record) Unit(k UnitKey) UnitValue {
	return r.Units[k]
}

// Time parses Date. ok is false for rows with unusable dates.
func (r Record) Time() (t time.Time, ok bool) {
	t, err := time.Parse(DateLayout, r.Date)
	return t, err == nil
}

// Validate checks the fields that input paths must provide
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	if _, ok := r.Time(); !ok {
		return fmt.Errorf("record %s: invalid date %q (use YYYY-MM-DD)", r.ID, r.Date)
	}
	return nil
}

// Clone returns a deep copy, so callers never share the Units map
func (r Record) Clone() Record {
	c := r
	c.Units = make(map[UnitKey]UnitValue, len(r.Units))
	for k, v := range r.Units {
		c.Units[k] = v
	}
	return c
}

// UnmarshalJSON decodes rows coming from the spreadsheet or the local cache.
// Cells can hold anything, so numbers are coerced and missing units defaulted.
// Timestamp dates are read in the local timezone; see DecodeRecords.
func (r *Record) UnmarshalJSON(data []byte) error {
	return r.decode(data, time.Local)
}

// DecodeRecords decodes a JSON array of rows. Date cells that arrive as
// timestamps are converted to loc before the calendar date is taken, so loc
// should be the timezone the spreadsheet was written in. A nil loc means
// time.Local.
func DecodeRecords(data []byte, loc *time.Location) (RecordSet, error) {
	if loc == nil {
		loc = time.Local
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	out := make(RecordSet, len(rows))
	for i, row := range rows {
		if err := out[i].decode(row, loc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Record) decode(data []byte, loc *time.Location) error {
	var raw struct {
		ID            json.RawMessage            `json:"id"`
		Date          json.RawMessage            `json:"date"`
		Units         map[string]json.RawMessage `json:"units"`
		TotalOrder    json.RawMessage            `json:"totalOrder"`
		TotalDispatch json.RawMessage            `json:"totalDispatch"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	r.ID = coerceID(raw.ID)
	r.Date = coerceDate(raw.Date, loc)
	r.TotalOrder = coerceAmount(raw.TotalOrder)
	r.TotalDispatch = coerceAmount(raw.TotalDispatch)

	r.Units = make(map[UnitKey]UnitValue, len(Units))
	for _, u := range Units {
		var v UnitValue
		if cell, ok := raw.Units[string(u)]; ok {
			if err := json.Unmarshal(cell, &v); err != nil {
				v = UnitValue{}
			}
		}
		r.Units[u] = v
	}
	return nil
}

// RecordSet is the ordered collection of known records, newest submission first
type RecordSet []Record

// Clone copies the set and every record in it
func (rs RecordSet) Clone() RecordSet {
	if rs == nil {
		return nil
	}
	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Find returns the record with id
func (rs RecordSet) Find(id string) (Record, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Index returns the position of id in the set, or -1
func (rs RecordSet) Index(id string) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Insert returns a new set with r at position i, clamped to the set's length.
// The receiver is not modified.
func (rs RecordSet) Insert(i int, r Record) RecordSet {
	i = max(0, min(i, len(rs)))
	out := make(RecordSet, 0, len(rs)+1)
	out = append(out, rs[:i]...)
	out = append(out, r)
	return append(out, rs[i:]...)
}

// Without returns a new set without id. The receiver is not modified.
func (rs RecordSet) Without(id string) RecordSet {
	out := make(RecordSet, 0, len(rs))
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// coerceAmount turns a JSON cell into a non-negative finite number, 0 otherwise
func coerceAmount(cell json.RawMessage) float64 {
	if len(cell) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(cell, &f); err == nil {
		return sanitize(f)
	}
	var s string
	if err := json.Unmarshal(cell, &s); err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return sanitize(f)
}

func coerceID(cell json.RawMessage) string {
	if len(cell) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(cell, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// Spreadsheet cells turn timestamp ids into numbers
	var n json.Number
	if err := json.Unmarshal(cell, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return ""
}

func coerceDate(cell json.RawMessage, loc *time.Location) string {
	var s string
	if err := json.Unmarshal(cell, &s); err != nil {
		return ""
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err == nil {
		return s
	}
	// Date cells come back as UTC timestamps of midnight in the sheet's timezone
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc).Format(DateLayout)
	}
	return s
}
