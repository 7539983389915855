package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureScaler(t *testing.T) {
	rows := [][]float64{
		{1, 100, 5},
		{2, 100, 7},
		{3, 100, 9},
		{4, 100, 11},
	}
	scaler := fitScaler(rows)
	scaled := scaler.transform(rows)

	for j := 0; j < 3; j++ {
		col := make([]float64, len(scaled))
		for i := range scaled {
			col[i] = scaled[i][j]
		}
		assert.InDelta(t, 0.0, meanFloat64(col), 1e-12, "column %d mean", j)
	}

	// Constant column stays at zero instead of dividing by zero.
	for i := range scaled {
		assert.Equal(t, 0.0, scaled[i][1])
	}

	// Varying columns standardize to unit population deviation.
	col0 := []float64{scaled[0][0], scaled[1][0], scaled[2][0], scaled[3][0]}
	assert.InDelta(t, 1.0, stdDevFloat64(col0), 1e-12)
}

func TestRidgeRegressionRecoversLinearRelation(t *testing.T) {
	var rows [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		x1 := float64(i)
		x2 := float64(i%7) - 3
		rows = append(rows, []float64{x1, x2})
		y = append(y, 2*x1-x2+3)
	}

	coef, intercept, ok := ridgeRegression(rows, y, 0.001)
	require.True(t, ok)
	require.Len(t, coef, 2)
	assert.InDelta(t, 2.0, coef[0], 0.01)
	assert.InDelta(t, -1.0, coef[1], 0.01)
	assert.InDelta(t, 3.0, intercept, 0.1)
}

func TestRidgeRegressionDegenerateInput(t *testing.T) {
	_, _, ok := ridgeRegression(nil, nil, 1.0)
	assert.False(t, ok)

	_, _, ok = ridgeRegression([][]float64{{1}}, []float64{1, 2}, 1.0)
	assert.False(t, ok)
}

func TestRSquared(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, rSquared(actual, []float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, rSquared([]float64{5, 5, 5}, []float64{4, 5, 6}))
	assert.Less(t, rSquared(actual, []float64{4, 3, 2, 1}), 0.0)
}

func TestMeanSquaredError(t *testing.T) {
	assert.Equal(t, 0.0, meanSquaredError([]float64{1, 2}, []float64{1, 2}))
	assert.Equal(t, 1.0, meanSquaredError([]float64{1, 2}, []float64{2, 3}))
}

func TestBuildRegressionDataFiltersInvalidRows(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	series := syntheticSeries(12)
	series[3].Price = 0
	series[5].ActiveAddresses = 0
	series[7].MarketCap = -1

	features, targets := m.buildRegressionData(series)
	assert.Len(t, features, 9)
	assert.Len(t, targets, 9)
	for _, row := range features {
		assert.Len(t, row, 3)
	}
}

func TestBuildRegressionDataTotalFallback(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	series := syntheticSeries(12)
	for i := range series {
		series[i].TotalAddresses = 0
	}

	// With total falling back to active, density is 1 and the network value
	// stays positive.
	features, _ := m.buildRegressionData(series)
	assert.Len(t, features, 12)
	for _, row := range features {
		assert.Greater(t, row[0], 0.0)
	}
}

func TestFitModelSplitIsDeterministic(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	series := syntheticSeries(36)

	a, err := m.fitModel(series)
	require.NoError(t, err)
	b, err := m.fitModel(series)
	require.NoError(t, err)

	assert.Equal(t, a.Coefficients, b.Coefficients)
	assert.Equal(t, a.Intercept, b.Intercept)
	assert.Equal(t, a.TestR2, b.TestR2)
}

func TestFitModelMinimumRows(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)

	_, err := m.fitModel(syntheticSeries(9))
	var insufficientErr *InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 9, insufficientErr.ValidRows)
	assert.Equal(t, 10, insufficientErr.Required)

	fitted, err := m.fitModel(syntheticSeries(10))
	require.NoError(t, err)
	assert.Len(t, fitted.Coefficients, 3)
}

func TestPredictPriceDegenerateState(t *testing.T) {
	m := NewModel(DefaultOptions("BTC"), nil)
	fitted, err := m.fitModel(syntheticSeries(36))
	require.NoError(t, err)

	price, interval := m.predictPrice(fitted, 0, 0, 0, 0)
	assert.Equal(t, 0.0, price)
	assert.Equal(t, ConfidenceInterval{}, interval)

	price, interval = m.predictPrice(fitted, 2e6, 3e6, 1e7, 4e9)
	assert.Greater(t, price, 0.0)
	assert.Greater(t, interval.Upper, interval.Lower)
	assert.False(t, math.IsNaN(price))
}
