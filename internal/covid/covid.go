package covid

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout dates are stored and displayed with.
const DateLayout = "2006-01-02"

// Metric selects one of the two cumulative counts of an Observation.
type Metric int

const (
	METRIC_CASES Metric = iota
	METRIC_DEATHS
)

func (m Metric) String() string {
	switch m {
	case METRIC_CASES:
		return "cases"
	case METRIC_DEATHS:
		return "deaths"
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cases":
		return METRIC_CASES, nil
	case "deaths":
		return METRIC_DEATHS, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// Totals are the cumulative counts as published on a given day.
type Totals struct {
	Cases  int64
	Deaths int64
}

// Observation is one day's recorded cumulative counts.
type Observation struct {
	// Date is a civil date, always midnight UTC.
	Date   time.Time
	Cases  int64
	Deaths int64
}

func (o Observation) Value(m Metric) int64 {
	if m == METRIC_DEATHS {
		return o.Deaths
	}
	return o.Cases
}

// atLeast reports whether both counts of o are >= the counts of other.
func (o Observation) atLeast(other Observation) bool {
	return o.Cases >= other.Cases && o.Deaths >= other.Deaths
}

// Day truncates a time to its civil date, keeping the date as seen in the
// time's own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func NewObservation(date time.Time, totals Totals) Observation {
	return Observation{
		Date:   Day(date),
		Cases:  totals.Cases,
		Deaths: totals.Deaths,
	}
}

// Series is a sequence of observations with unique dates in ascending order.
type Series []Observation

func compareDate(o Observation, date time.Time) int {
	return o.Date.Compare(date)
}

// Find returns the index of the observation for the date.
func (s Series) Find(date time.Time) (int, bool) {
	return slices.BinarySearchFunc(s, Day(date), compareDate)
}

// Last returns the latest observation.
func (s Series) Last() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Merge returns the series with the observation applied:
//   - a new date is inserted in order
//   - an existing date is overwritten when both new counts are >= the stored ones
//
// Any observation that would make the cumulative counts decrease, either on
// its own date or relative to its neighbours, is rejected with an
// *AnomalyError and the receiver is returned unchanged. changed is false when
// the observation was already present with identical counts.
func (s Series) Merge(o Observation) (out Series, changed bool, err error) {
	o.Date = Day(o.Date)
	if o.Cases < 0 || o.Deaths < 0 {
		return s, false, fmt.Errorf("%w: negative counts on %s", ErrDataAnomaly, o.Date.Format(DateLayout))
	}

	idx, found := s.Find(o.Date)
	if found {
		existing := s[idx]
		if existing.Cases == o.Cases && existing.Deaths == o.Deaths {
			return s, false, nil
		}
		if !o.atLeast(existing) {
			return s, false, &AnomalyError{Incoming: o, Conflict: existing}
		}
	}

	if idx > 0 && !o.atLeast(s[idx-1]) {
		return s, false, &AnomalyError{Incoming: o, Conflict: s[idx-1]}
	}
	next := idx
	if found {
		next = idx + 1
	}
	if next < len(s) && !s[next].atLeast(o) {
		return s, false, &AnomalyError{Incoming: o, Conflict: s[next]}
	}

	out = slices.Clone(s)
	if found {
		out[idx] = o
		return out, true, nil
	}
	return slices.Insert(out, idx, o), true, nil
}

// Window returns the observations within the window.
func (s Series) Window(w Window) Series {
	var out Series
	for _, o := range s {
		if w.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return out
}

// Values returns the dates and counts of a metric.
func (s Series) Values(m Metric) ([]time.Time, []int64) {
	dates := make([]time.Time, len(s))
	values := make([]int64, len(s))
	for i, o := range s {
		dates[i] = o.Date
		values[i] = o.Value(m)
	}
	return dates, values
}
