package valuation

import "math"

func meanFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevFloat64 is the population standard deviation. The diagnostic metrics
// are defined against population moments, not the sample-corrected ones.
func stdDevFloat64(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanFloat64(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

func varianceFloat64(values []float64) float64 {
	sd := stdDevFloat64(values)
	return sd * sd
}

// pearson returns the correlation of x and y. ok is false when either series
// is constant or too short, so callers can substitute their own default.
func pearson(x, y []float64) (corr float64, ok bool) {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0, false
	}
	meanX := meanFloat64(x)
	meanY := meanFloat64(y)

	var numerator float64
	var denomX float64
	var denomY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	denom := math.Sqrt(denomX * denomY)
	if denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	corr = numerator / denom
	if corr > 1 {
		corr = 1
	}
	if corr < -1 {
		corr = -1
	}
	return corr, true
}

// correlationOrZero is the common degradation: 0.0 whenever the correlation
// is undefined.
func correlationOrZero(x, y []float64) float64 {
	corr, ok := pearson(x, y)
	if !ok {
		return 0
	}
	return corr
}

// linregress fits y = slope*x + intercept by ordinary least squares and also
// reports the correlation coefficient r.
func linregress(x, y []float64) (slope, intercept, r float64) {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0, meanFloat64(y), 0
	}
	meanX := meanFloat64(x)
	meanY := meanFloat64(y)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 {
		return 0, meanY, 0
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX
	r, _ = pearson(x, y)
	return slope, intercept, r
}

func logReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		if series[i-1] <= 0 || series[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(series[i]/series[i-1]))
	}
	return returns
}

// simpleReturns keeps only finite period-over-period returns.
func simpleReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		if series[i-1] == 0 {
			continue
		}
		r := (series[i] - series[i-1]) / series[i-1]
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		returns = append(returns, r)
	}
	return returns
}

func diffFloat64(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		out[i-1] = series[i] - series[i-1]
	}
	return out
}

func medianFloat64(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func sumFloat64(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// populationSkewness matches the uncorrected third standardized moment.
func populationSkewness(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := meanFloat64(values)
	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// populationExcessKurtosis matches the uncorrected fourth standardized moment
// minus 3.
func populationExcessKurtosis(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := meanFloat64(values)
	var m2, m4 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= float64(n)
	m4 /= float64(n)
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}
