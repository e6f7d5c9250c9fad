package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Logistic is y = Max / (1 + exp(-(days - Peak) / Scale)) + Base, where Base
// is the first value of the data.
type Logistic struct {
	Max   float64
	Peak  float64
	Scale float64
	Base  float64
	// Tomorrow is the predicted increment of the day after the last point.
	Tomorrow float64
}

// initial guesses in days
const (
	initialScale = 7
	initialPeak  = 60
)

// FitLogistic fits a logistic curve by minimizing the sum of squared errors
// with Nelder-Mead. Fits that do not converge or whose maximum is not
// positive are rejected with ErrNoFit.
func FitLogistic(data Data) (*Logistic, error) {
	if len(data.Values) < 4 {
		return nil, insufficient("logistic", len(data.Values), 4)
	}

	base := data.Values[0]
	lastDay, lastValue := data.last()

	// values are normalized so the optimizer works on similar magnitudes
	norm := floats.Max(data.Values) - base
	if norm <= 0 {
		return nil, fmt.Errorf("%w: logistic fit needs a growing series", ErrNoFit)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			top, peak, scale := x[0], x[1], x[2]
			if scale <= 0 {
				return math.Inf(1)
			}
			var sse float64
			for i, d := range data.Days {
				predicted := top / (1 + math.Exp(-(d-peak)/scale))
				residual := predicted - (data.Values[i]-base)/norm
				sse += residual * residual
			}
			return sse
		},
	}

	peak := float64(initialPeak)
	if lastDay > 0 {
		peak = lastDay
	}
	result, err := optimize.Minimize(
		problem,
		[]float64{2, peak, initialScale},
		&optimize.Settings{MajorIterations: 10000},
		&optimize.NelderMead{},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFit, err)
	}
	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return nil, fmt.Errorf("%w: logistic fit did not converge (%s)", ErrNoFit, result.Status)
	}

	x := result.Location.X
	model := &Logistic{
		Max:   x[0] * norm,
		Peak:  x[1],
		Scale: x[2],
		Base:  base,
	}
	if model.Max <= 0 || model.Scale <= 0 || math.IsNaN(model.Max) || math.IsNaN(model.Peak) {
		return nil, fmt.Errorf("%w: logistic fit has no positive maximum", ErrNoFit)
	}
	model.Tomorrow = model.At(lastDay+1) - lastValue
	return model, nil
}

func (l *Logistic) At(days float64) float64 {
	return l.Max/(1+math.Exp(-(days-l.Peak)/l.Scale)) + l.Base
}

// PeakGrowth is the increment of the day after the inflection point.
func (l *Logistic) PeakGrowth() float64 {
	return l.At(l.Peak+1) - l.At(l.Peak)
}

// Total is the value the curve levels off at.
func (l *Logistic) Total() float64 {
	return l.Max + l.Base
}

func (l *Logistic) String() string {
	return fmt.Sprintf(
		"logistic: total %.0f, peak at day %.1f with %.0f per day",
		l.Total(),
		l.Peak,
		l.PeakGrowth(),
	)
}
