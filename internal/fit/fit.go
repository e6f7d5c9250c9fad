// Package fit fits growth models to a cumulative series. Fits are
// informational, callers should treat a failed fit as "no model" rather
// than as a failed run.
package fit

import (
	"covidcurve/internal/covid"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoFit means the model could not be fitted to the data.
var ErrNoFit = errors.New("no fit")

const day = 24 * time.Hour

// Data is a metric of a series expressed as days since Origin.
type Data struct {
	Origin time.Time
	Days   []float64
	Values []float64
}

// FromSeries converts the metric of a series into fitting data, the first
// observation is day 0.
func FromSeries(series covid.Series, metric covid.Metric) Data {
	dates, values := series.Values(metric)

	data := Data{
		Days:   make([]float64, len(dates)),
		Values: make([]float64, len(values)),
	}
	if len(dates) == 0 {
		return data
	}
	data.Origin = dates[0]
	for i := range dates {
		data.Days[i] = data.DayOf(dates[i])
		data.Values[i] = float64(values[i])
	}
	return data
}

// DayOf returns the position of a date on the fitting axis.
func (d Data) DayOf(date time.Time) float64 {
	return float64(covid.Day(date).Sub(d.Origin)) / float64(day)
}

// DateOf is the inverse of DayOf, rounded to the nearest date.
func (d Data) DateOf(days float64) time.Time {
	return d.Origin.Add(time.Duration(math.Round(days)) * day)
}

func (d Data) last() (float64, float64) {
	return d.Days[len(d.Days)-1], d.Values[len(d.Values)-1]
}

// Model is a fitted curve.
type Model interface {
	// At evaluates the model at a day on the data's axis.
	At(days float64) float64
	String() string
}

// Curve samples a model on every day from..to (inclusive).
func Curve(m Model, from, to float64) (days []float64, values []float64) {
	for x := math.Floor(from); x <= to; x++ {
		y := m.At(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		days = append(days, x)
		values = append(values, y)
	}
	return days, values
}

func insufficient(model string, have, need int) error {
	return fmt.Errorf("%w: %s fit needs %d points, have %d", covid.ErrDataInsufficient, model, need, have)
}
