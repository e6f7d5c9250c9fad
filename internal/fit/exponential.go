package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Exponential is y = exp(Intercept + LnGrowth * days).
type Exponential struct {
	Intercept float64
	// LnGrowth is the natural log of the daily growth factor.
	LnGrowth float64
	// Tomorrow is the predicted increment of the day after the last point.
	Tomorrow float64
}

// FitExponential fits an exponential with log-linear least squares. Only
// strictly positive values take part in the fit.
func FitExponential(data Data) (*Exponential, error) {
	var xs, ys []float64
	for i, v := range data.Values {
		if v <= 0 {
			continue
		}
		xs = append(xs, data.Days[i])
		ys = append(ys, math.Log(v))
	}
	if len(xs) < 2 {
		return nil, insufficient("exponential", len(xs), 2)
	}
	if xs[0] == xs[len(xs)-1] {
		return nil, fmt.Errorf("%w: exponential fit needs distinct days", ErrNoFit)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(intercept) || math.IsNaN(slope) {
		return nil, ErrNoFit
	}

	model := &Exponential{Intercept: intercept, LnGrowth: slope}
	lastDay, lastValue := data.last()
	model.Tomorrow = model.At(lastDay+1) - lastValue
	return model, nil
}

func (e *Exponential) At(days float64) float64 {
	return math.Exp(e.Intercept + e.LnGrowth*days)
}

// DailyGrowth is the factor the value is multiplied with every day.
func (e *Exponential) DailyGrowth() float64 {
	return math.Exp(e.LnGrowth)
}

// DoublingDays is the number of days it takes for the value to double,
// +Inf when the series is not growing.
func (e *Exponential) DoublingDays() float64 {
	if e.LnGrowth <= 0 {
		return math.Inf(1)
	}
	return math.Ln2 / e.LnGrowth
}

func (e *Exponential) String() string {
	return fmt.Sprintf(
		"exponential: daily growth %.2f%%, doubling every %.1f days",
		(e.DailyGrowth()-1)*100,
		e.DoublingDays(),
	)
}
