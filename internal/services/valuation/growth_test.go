package valuation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeFeatureRow(t *testing.T) {
	genesis := time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC)
	date := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	row := timeFeatureRow(7, date, genesis)
	require.Len(t, row, 6)
	assert.Equal(t, 7.0, row[0])
	assert.InDelta(t, date.Sub(genesis).Hours()/24, row[1], 1e-9)
	assert.Equal(t, 2021.0, row[2])
	assert.Equal(t, 3.0, row[3])

	dayOfYear := float64(date.YearDay())
	assert.InDelta(t, math.Sin(2*math.Pi*dayOfYear/365), row[4], 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*dayOfYear/365), row[5], 1e-12)
}

func TestExpandPolynomial(t *testing.T) {
	assert.Equal(t, []float64{2, 3}, expandPolynomial([]float64{2, 3}, 1))

	expanded := expandPolynomial([]float64{2, 3}, 3)
	assert.Equal(t, []float64{2, 4, 8, 3, 9, 27}, expanded)
}

func TestGrowthForecastFallback(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)

	// 10 observations yield only 9 supervised rows: compound fallback.
	series := syntheticSeries(10)
	last := series[len(series)-1].ActiveAddresses

	forecast := m.growthForecast(series)
	require.Len(t, forecast.PredictedAddresses, 24)
	assert.InDelta(t, last*1.05, forecast.PredictedAddresses[0], last*1e-9)
	assert.InDelta(t, last*math.Pow(1.05, 24), forecast.PredictedAddresses[23], last*1e-9)
	for _, rate := range forecast.GrowthRateForecast {
		assert.Equal(t, 0.05, rate)
	}
	assert.Equal(t, 1e8, forecast.SCurve.CarryingCapacity)
	assert.Equal(t, 0.5, forecast.SCurveFitR2)
	assert.Nil(t, forecast.TimeToSaturation)
}

func TestGrowthForecastEmptySeries(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)

	forecast := m.growthForecast(nil)
	require.Len(t, forecast.PredictedAddresses, 24)
	assert.Equal(t, 0.0, forecast.PredictedAddresses[0])
}

func TestGrowthForecastEnsemble(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	series := syntheticSeries(36)

	forecast := m.growthForecast(series)
	require.Len(t, forecast.PredictedAddresses, 24)
	require.Len(t, forecast.GrowthRateForecast, 24)

	for i, v := range forecast.PredictedAddresses {
		assert.False(t, math.IsNaN(v), "prediction %d", i)
		assert.False(t, math.IsInf(v, 0), "prediction %d", i)
	}
	assert.Greater(t, forecast.CapacityEstimate, 0.0)
	assert.Equal(t, forecast.SCurve.CarryingCapacity, forecast.CapacityEstimate)
}

func TestGrowthForecastDeterministic(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	series := syntheticSeries(36)

	a := m.growthForecast(series)
	b := m.growthForecast(series)
	assert.Equal(t, a.PredictedAddresses, b.PredictedAddresses)
	assert.Equal(t, a.GrowthRateForecast, b.GrowthRateForecast)
}

func TestLogisticGrowth(t *testing.T) {
	// At the inflection point the curve sits at half capacity.
	assert.InDelta(t, 500, logisticGrowth(50, 1000, 0.1, 50), 1e-9)

	// Far past the inflection it saturates; far before it vanishes.
	assert.InDelta(t, 1000, logisticGrowth(1e5, 1000, 0.1, 50), 1e-6)
	assert.InDelta(t, 0, logisticGrowth(-1e5, 1000, 0.1, 50), 1e-6)
}

func TestFitAdoptionCurveOnLogisticData(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)

	addresses := make([]float64, 60)
	for i := range addresses {
		addresses[i] = logisticGrowth(float64(i), 1e6, 0.2, 30)
	}

	params, fitR2, _ := m.fitAdoptionCurve(addresses)
	assert.Greater(t, params.CarryingCapacity, 0.0)
	assert.LessOrEqual(t, fitR2, 1.0)
}

func TestGrowthAcceleration(t *testing.T) {
	assert.Equal(t, 0.0, growthAcceleration([]float64{1, 2}))

	// Quadratic growth has constant second difference.
	quadratic := make([]float64, 15)
	for i := range quadratic {
		quadratic[i] = float64(i * i)
	}
	assert.InDelta(t, 2.0, growthAcceleration(quadratic), 1e-9)

	linear := []float64{10, 20, 30, 40, 50}
	assert.InDelta(t, 0.0, growthAcceleration(linear), 1e-9)
}
