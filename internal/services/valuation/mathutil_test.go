package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanFloat64(t *testing.T) {
	assert.Equal(t, 0.0, meanFloat64(nil))
	assert.Equal(t, 2.0, meanFloat64([]float64{1, 2, 3}))
}

func TestStdDevFloat64(t *testing.T) {
	// Population standard deviation, not the sample-corrected one.
	assert.InDelta(t, math.Sqrt(2.0/3.0), stdDevFloat64([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, 0.0, stdDevFloat64([]float64{5}))
	assert.Equal(t, 0.0, stdDevFloat64([]float64{3, 3, 3, 3}))
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	corr, ok := pearson(x, y)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, corr, 1e-12)

	inverted := []float64{10, 8, 6, 4, 2}
	corr, ok = pearson(x, inverted)
	assert.True(t, ok)
	assert.InDelta(t, -1.0, corr, 1e-12)

	_, ok = pearson(x, []float64{7, 7, 7, 7, 7})
	assert.False(t, ok, "constant series has undefined correlation")

	_, ok = pearson([]float64{1}, []float64{2})
	assert.False(t, ok)
}

func TestCorrelationOrZero(t *testing.T) {
	assert.Equal(t, 0.0, correlationOrZero([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.InDelta(t, 1.0, correlationOrZero([]float64{1, 2, 3}, []float64{10, 20, 30}), 1e-12)
}

func TestLinregress(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{1, 3, 5, 7}

	slope, intercept, r := linregress(x, y)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)
	assert.InDelta(t, 1.0, r, 1e-12)

	slope, intercept, r = linregress([]float64{2, 2, 2}, []float64{1, 5, 9})
	assert.Equal(t, 0.0, slope)
	assert.InDelta(t, 5.0, intercept, 1e-12)
	assert.Equal(t, 0.0, r)
}

func TestLogReturns(t *testing.T) {
	returns := logReturns([]float64{100, 110, 121})
	assert.Len(t, returns, 2)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)
	assert.InDelta(t, math.Log(1.1), returns[1], 1e-12)

	// Non-positive prices are skipped rather than producing infinities.
	assert.Len(t, logReturns([]float64{100, 0, 121}), 0)
	assert.Nil(t, logReturns([]float64{100}))
}

func TestSimpleReturns(t *testing.T) {
	returns := simpleReturns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-12)
	assert.InDelta(t, -0.1, returns[1], 1e-12)

	assert.Len(t, simpleReturns([]float64{0, 5}), 0)
}

func TestMedianFloat64(t *testing.T) {
	assert.Equal(t, 0.0, medianFloat64(nil))
	assert.Equal(t, 3.0, medianFloat64([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, medianFloat64([]float64{4, 1, 2, 3}))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.25, clamp01(0.25))
	assert.Equal(t, 0.0, clamp01(math.NaN()))
}

func TestPopulationMoments(t *testing.T) {
	symmetric := []float64{-2, -1, 0, 1, 2}
	assert.InDelta(t, 0.0, populationSkewness(symmetric), 1e-12)

	// Uniform-ish flat distribution has negative excess kurtosis.
	assert.Less(t, populationExcessKurtosis(symmetric), 0.0)

	assert.Equal(t, 0.0, populationSkewness([]float64{3, 3, 3}))
	assert.Equal(t, 0.0, populationExcessKurtosis([]float64{3, 3, 3}))
}

func TestGiniCoefficient(t *testing.T) {
	gini, ok := giniCoefficient([]float64{10, 10, 10, 10})
	assert.True(t, ok)
	assert.InDelta(t, 0.0, gini, 1e-12, "perfect equality")

	gini, ok = giniCoefficient([]float64{0, 0, 0, 100})
	assert.True(t, ok)
	assert.Greater(t, gini, 0.7, "extreme concentration")

	_, ok = giniCoefficient([]float64{0, 0, 0})
	assert.False(t, ok)
}
