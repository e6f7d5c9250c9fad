package fit

import (
	"errors"
	"math"
	"testing"
	"time"

	"covidcurve/internal/covid"

	"github.com/stretchr/testify/require"
)

func syntheticSeries(days int, f func(day float64) float64) covid.Series {
	origin := time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)
	series := covid.Series{}
	for i := 0; i < days; i++ {
		v := int64(math.Round(f(float64(i))))
		series = append(series, covid.Observation{
			Date:   origin.AddDate(0, 0, i),
			Cases:  v,
			Deaths: v / 30,
		})
	}
	return series
}

func TestFromSeries(t *testing.T) {
	series := covid.Series{
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Cases: 100, Deaths: 5},
		{Date: time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), Cases: 130, Deaths: 7},
	}
	data := FromSeries(series, covid.METRIC_DEATHS)
	require.Equal(t, []float64{0, 2}, data.Days)
	require.Equal(t, []float64{5, 7}, data.Values)
	require.Equal(t, series[1].Date, data.DateOf(2))
	require.Equal(t, 2.0, data.DayOf(series[1].Date))

	empty := FromSeries(nil, covid.METRIC_CASES)
	require.Empty(t, empty.Days)
}

func TestFitExponential(t *testing.T) {
	// 20% daily growth starting at 50
	series := syntheticSeries(20, func(day float64) float64 {
		return 50 * math.Pow(1.2, day)
	})

	model, err := FitExponential(FromSeries(series, covid.METRIC_CASES))
	require.NoError(t, err)
	require.InDelta(t, 1.2, model.DailyGrowth(), 0.005)
	require.InDelta(t, math.Ln2/math.Log(1.2), model.DoublingDays(), 0.1)
	require.InDelta(t, 50, model.At(0), 1)
	require.Greater(t, model.Tomorrow, 0.0)
	require.Contains(t, model.String(), "doubling every")
}

func TestFitExponentialFlat(t *testing.T) {
	series := syntheticSeries(5, func(day float64) float64 { return 10 })
	model, err := FitExponential(FromSeries(series, covid.METRIC_CASES))
	require.NoError(t, err)
	require.InDelta(t, 1, model.DailyGrowth(), 1e-9)
	require.True(t, math.IsInf(model.DoublingDays(), 1))
}

func TestFitExponentialInsufficient(t *testing.T) {
	series := syntheticSeries(3, func(day float64) float64 {
		if day < 2 {
			return 0
		}
		return 10
	})
	_, err := FitExponential(FromSeries(series, covid.METRIC_CASES))
	require.ErrorIs(t, err, covid.ErrDataInsufficient)
}

func TestFitLogistic(t *testing.T) {
	series := syntheticSeries(60, func(day float64) float64 {
		return 10000/(1+math.Exp(-(day-30)/5)) + 20
	})

	model, err := FitLogistic(FromSeries(series, covid.METRIC_CASES))
	require.NoError(t, err)
	require.InDelta(t, 30, model.Peak, 2)
	require.InDelta(t, 5, model.Scale, 1)
	require.InEpsilon(t, 10000+model.Base, model.Total(), 0.05)
	require.Greater(t, model.PeakGrowth(), 0.0)
}

func TestFitLogisticRejected(t *testing.T) {
	_, err := FitLogistic(FromSeries(syntheticSeries(3, func(day float64) float64 { return day }), covid.METRIC_CASES))
	require.ErrorIs(t, err, covid.ErrDataInsufficient)

	_, err = FitLogistic(FromSeries(syntheticSeries(10, func(day float64) float64 { return 7 }), covid.METRIC_CASES))
	require.True(t, errors.Is(err, ErrNoFit))
}

func TestCurve(t *testing.T) {
	model := &Exponential{Intercept: 0, LnGrowth: math.Ln2}
	days, values := Curve(model, 0, 3)
	require.Equal(t, []float64{0, 1, 2, 3}, days)
	for i, v := range []float64{1, 2, 4, 8} {
		require.InDelta(t, v, values[i], 1e-9)
	}
}
