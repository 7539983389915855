package valuation

import (
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
)

// tradingDaysPerYear annualizes per-period return statistics.
const tradingDaysPerYear = 252

// riskMetrics derives volatility, drawdown, and the risk-adjusted return
// ratios from the price series, plus the cross-series correlations. Each
// metric resolves to 0.0 when its input is degenerate.
type riskMetrics struct {
	NetworkVolatility        float64
	MaxDrawdown              float64
	SharpeRatio              float64
	SortinoRatio             float64
	CalmarRatio              float64
	PriceNetworkCorrelation  float64
	VolumeNetworkCorrelation float64
	AddressPriceCorrelation  float64
}

func (m *Model) riskMetrics(series []Observation) riskMetrics {
	prices := make([]float64, len(series))
	addresses := make([]float64, len(series))
	volumes := make([]float64, len(series))
	for i, row := range series {
		prices[i] = row.Price
		addresses[i] = row.ActiveAddresses
		volumes[i] = row.TransactionVolume
	}

	var out riskMetrics

	if logRets := logReturns(prices); len(logRets) > 0 {
		out.NetworkVolatility = stdDevFloat64(logRets) * math.Sqrt(tradingDaysPerYear)
	}

	returns := simpleReturns(prices)
	out.MaxDrawdown = maxDrawdown(returns)

	if sd := stdDevFloat64(returns); sd > 0 {
		out.SharpeRatio = meanFloat64(returns) / sd * math.Sqrt(tradingDaysPerYear)
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if sd := stdDevFloat64(downside); len(downside) > 0 && sd > 0 {
		out.SortinoRatio = meanFloat64(returns) / sd * math.Sqrt(tradingDaysPerYear)
	} else {
		out.SortinoRatio = out.SharpeRatio
	}

	if out.MaxDrawdown > 0 && len(prices) > 1 && prices[0] > 0 {
		annualReturn := math.Pow(prices[len(prices)-1]/prices[0], tradingDaysPerYear/float64(len(prices))) - 1
		out.CalmarRatio = annualReturn / out.MaxDrawdown
	}

	out.PriceNetworkCorrelation = correlationOrZero(prices, addresses)
	out.VolumeNetworkCorrelation = correlationOrZero(volumes, addresses)
	out.AddressPriceCorrelation = correlationOrZero(addresses, prices)
	return out
}

// maxDrawdown is the largest peak-to-trough decline of the cumulative return
// series.
func maxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cumulative := 1.0
	peak := math.Inf(-1)
	worst := 0.0
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if peak > 0 {
			if dd := (cumulative - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return math.Abs(worst)
}

// statisticalMeasures describes the shape of the address return
// distribution.
type statisticalMeasures struct {
	Skewness         float64
	Kurtosis         float64
	JarqueBeraStat   float64
	JarqueBeraPValue float64
	Autocorrelation  []float64
}

func (m *Model) statisticalMeasures(series []Observation) statisticalMeasures {
	out := statisticalMeasures{JarqueBeraPValue: 1.0}

	if len(series) <= 2 {
		return out
	}
	addresses := make([]float64, len(series))
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
	}
	returns := simpleReturns(addresses)
	if len(returns) == 0 {
		return out
	}

	out.Skewness = populationSkewness(returns)
	out.Kurtosis = populationExcessKurtosis(returns)

	// Jarque-Bera normality test; the p-value is the chi-squared (k=2)
	// survival function, which has the closed form exp(-JB/2).
	n := float64(len(returns))
	out.JarqueBeraStat = n / 6 * (out.Skewness*out.Skewness + out.Kurtosis*out.Kurtosis/4)
	out.JarqueBeraPValue = clamp01(math.Exp(-out.JarqueBeraStat / 2))

	maxLags := len(returns) / 4
	if maxLags > 10 {
		maxLags = 10
	}
	for lag := 1; lag <= maxLags; lag++ {
		if len(returns) <= lag {
			break
		}
		out.Autocorrelation = append(out.Autocorrelation,
			correlationOrZero(returns[:len(returns)-lag], returns[lag:]))
	}
	return out
}

// predictiveMetrics captures trend, momentum, mean reversion, and cycle
// position of the address series.
type predictiveMetrics struct {
	TrendStrength         float64
	TrendDirection        int
	MomentumScore         float64
	MeanReversionTendency float64
	CyclePosition         float64
}

func (m *Model) predictiveMetrics(series []Observation) predictiveMetrics {
	var out predictiveMetrics
	if len(series) <= 2 {
		return out
	}

	n := len(series)
	addresses := make([]float64, n)
	x := make([]float64, n)
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
		x[i] = float64(i)
	}

	slope, intercept, r := linregress(x, addresses)
	out.TrendStrength = math.Abs(r)
	switch {
	case slope > 0:
		out.TrendDirection = 1
	case slope < 0:
		out.TrendDirection = -1
	}

	if n > 3 {
		half := n / 2
		firstSlope, _, _ := linregress(x[:half], addresses[:half])
		secondSlope, _, _ := linregress(x[half:], addresses[half:])
		out.MomentumScore = secondSlope - firstSlope
	}

	detrended := make([]float64, n)
	for i := range addresses {
		detrended[i] = addresses[i] - (slope*x[i] + intercept)
	}
	if corr, ok := pearson(detrended[:n-1], diffFloat64(detrended)); ok {
		out.MeanReversionTendency = -corr
	}

	if n > 8 {
		out.CyclePosition = cyclePosition(detrended)
	}
	return out
}

// cyclePosition locates the current phase within the dominant FFT cycle of
// the detrended series; 0 when no dominant frequency exists.
func cyclePosition(detrended []float64) float64 {
	n := len(detrended)
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, detrended)

	dominant := 0
	best := 0.0
	for i := 1; i < len(coeffs); i++ {
		if mag := cmplx.Abs(coeffs[i]); mag > best {
			best = mag
			dominant = i
		}
	}
	if dominant == 0 {
		return 0
	}

	freq := float64(dominant) / float64(n)
	cycleLength := 1 / freq
	return math.Mod(float64(n), cycleLength) / cycleLength
}

// efficiencyMetrics are the economic throughput measures of the network.
type efficiencyMetrics struct {
	NetworkEfficiencyScore float64
	UserAcquisitionCost    float64
	NetworkROI             float64
	EcosystemMaturity      float64
}

func (m *Model) efficiencyMetrics(series []Observation, asOf time.Time) efficiencyMetrics {
	var out efficiencyMetrics

	addresses := make([]float64, len(series))
	prices := make([]float64, len(series))
	volumes := make([]float64, len(series))
	marketCaps := make([]float64, len(series))
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
		prices[i] = row.Price
		volumes[i] = row.TransactionVolume
		marketCaps[i] = row.MarketCap
	}

	if len(series) > 0 {
		perAddress := make([]float64, len(series))
		for i := range volumes {
			perAddress[i] = volumes[i] / (addresses[i] + epsilon)
		}
		out.NetworkEfficiencyScore = math.Min(meanFloat64(perAddress)/1000, 1.0)
	}

	addressGrowth := diffFloat64(addresses)
	marketCapGrowth := diffFloat64(marketCaps)
	var costs []float64
	for i := range addressGrowth {
		if addressGrowth[i] > 0 {
			costs = append(costs, marketCapGrowth[i]/addressGrowth[i])
		}
	}
	if len(costs) > 0 {
		out.UserAcquisitionCost = meanFloat64(costs)
	}

	if len(series) > 1 && prices[0] > 0 && addresses[0] > 0 {
		priceGrowth := prices[len(prices)-1]/prices[0] - 1
		netGrowth := addresses[len(addresses)-1]/addresses[0] - 1
		if netGrowth > 0 {
			out.NetworkROI = priceGrowth / netGrowth
		}
	}

	networkAgeYears := asOf.Sub(m.params.GenesisDate).Hours() / 24 / 365.25
	if len(series) > 2 {
		addressVolatility := stdDevFloat64(simpleReturns(addresses))
		stability := 1 / (1 + addressVolatility)
		out.EcosystemMaturity = math.Min(1.0, networkAgeYears/10*stability)
	} else {
		out.EcosystemMaturity = math.Min(1.0, networkAgeYears/10)
	}
	return out
}

func defaultHealthMetrics() HealthMetrics {
	return HealthMetrics{
		Resilience:            0.5,
		DecentralizationScore: 0.5,
		ActivityConcentration: 0.5,
		Stability:             0.5,
		RetentionRate:         0.5,
		UtilityScore:          0.5,
		EcosystemDiversity:    0.5,
	}
}

// healthMetrics assesses overall network health. Every sub-score degrades to
// the neutral 0.5 on short or degenerate input.
func (m *Model) healthMetrics(series []Observation) HealthMetrics {
	out := defaultHealthMetrics()
	if len(series) == 0 {
		return out
	}

	addresses := make([]float64, len(series))
	prices := make([]float64, len(series))
	volumes := make([]float64, len(series))
	marketCaps := make([]float64, len(series))
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
		prices[i] = row.Price
		volumes[i] = row.TransactionVolume
		marketCaps[i] = row.MarketCap
	}

	if len(prices) > 1 {
		priceVolatility := stdDevFloat64(logReturns(prices))
		addressVolatility := stdDevFloat64(simpleReturns(addresses))
		out.Resilience = clamp01(1 / (1 + priceVolatility + addressVolatility))
	}

	// Gini-based decentralization of the activity distribution.
	if len(addresses) > 1 {
		if gini, ok := giniCoefficient(addresses); ok {
			out.DecentralizationScore = clamp01(1 - gini)
		}
	}

	if len(volumes) > 1 && sumFloat64(volumes) > 0 {
		cv := stdDevFloat64(volumes) / (meanFloat64(volumes) + epsilon)
		out.ActivityConcentration = clamp01(1 / (1 + cv))
	}

	if len(addresses) > 2 {
		if growthRates := simpleReturns(addresses); len(growthRates) > 0 {
			out.Stability = clamp01(1 / (1 + stdDevFloat64(growthRates)))
		}
	}

	// Retention proxy: recent growth relative to historical growth.
	if len(addresses) > 10 {
		recent := meanFloat64(diffFloat64(addresses[len(addresses)-5:]))
		historical := meanFloat64(diffFloat64(addresses[:len(addresses)-5]))
		if historical > 0 {
			out.RetentionRate = clamp01(recent / historical)
		}
	}

	if len(volumes) > 1 && len(marketCaps) > 1 {
		velocities := make([]float64, len(volumes))
		for i := range volumes {
			velocities[i] = volumes[i] / (marketCaps[i] + epsilon)
		}
		out.UtilityScore = clamp01(meanFloat64(velocities) / 10)
	}

	// Ecosystem diversity: entropy of the volume distribution.
	if len(volumes) > 1 {
		if total := sumFloat64(volumes); total > 0 {
			var entropy float64
			for _, v := range volumes {
				p := v / total
				entropy -= p * math.Log(p+epsilon)
			}
			if maxEntropy := math.Log(float64(len(volumes))); maxEntropy > 0 {
				out.EcosystemDiversity = clamp01(entropy / maxEntropy)
			}
		}
	}
	return out
}

// giniCoefficient of a non-negative series; ok is false when the series sums
// to zero.
func giniCoefficient(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	total := sumFloat64(sorted)
	if total <= 0 {
		return 0, false
	}
	var weighted float64
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	return 2*weighted/(float64(n)*total) - float64(n+1)/float64(n), true
}
