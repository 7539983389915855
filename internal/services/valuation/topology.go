package valuation

import "math"

// epsilon guards divisions by near-zero denominators in the topology
// approximations.
const epsilon = 1e-8

func defaultTopologyAnalysis() TopologyAnalysis {
	return TopologyAnalysis{
		ClusteringCoefficient:   0.5,
		NetworkDensity:          0.1,
		SmallWorldCoefficient:   0.3,
		DegreeDistributionPower: 2.0,
		NetworkEfficiency:       0.5,
		ModularityScore:         0.5,
		CentralizationIndex:     0.5,
	}
}

// topologyAnalysis approximates topology properties from the address and
// volume series. Each metric degrades to a fixed neutral default on short or
// degenerate input; this never returns an error.
func (m *Model) topologyAnalysis(series []Observation) TopologyAnalysis {
	if len(series) == 0 {
		return defaultTopologyAnalysis()
	}

	addresses := make([]float64, len(series))
	volumes := make([]float64, len(series))
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
		volumes[i] = row.TransactionVolume
	}

	out := defaultTopologyAnalysis()

	// Density: mean activity relative to the theoretical address ceiling.
	if m.params.MaxAddresses > 0 {
		out.NetworkDensity = clamp01(meanFloat64(addresses) / m.params.MaxAddresses)
	}

	// Clustering: dispersion of positive day-over-day address growth.
	var positiveGrowth []float64
	for _, d := range diffFloat64(addresses) {
		if d > 0 {
			positiveGrowth = append(positiveGrowth, d)
		}
	}
	if len(positiveGrowth) > 0 {
		out.ClusteringCoefficient = clamp01(stdDevFloat64(positiveGrowth) / (meanFloat64(positiveGrowth) + epsilon))
	}

	// Small-world balance between clustering and volume dispersion.
	volumeVariance := 0.0
	if len(volumes) > 1 {
		volumeVariance = varianceFloat64(volumes)
	}
	out.SmallWorldCoefficient = out.ClusteringCoefficient / (1 + volumeVariance/(meanFloat64(volumes)+epsilon))

	// Power-law exponent of the address magnitude vs rank relation.
	if len(addresses) > 10 {
		var logAddresses, logRanks []float64
		for _, a := range addresses {
			if a > 0 {
				logAddresses = append(logAddresses, math.Log(a))
				logRanks = append(logRanks, math.Log(float64(len(logAddresses))))
			}
		}
		if len(logAddresses) >= 2 {
			slope, _, _ := linregress(logRanks, logAddresses)
			out.DegreeDistributionPower = -slope
		}
	}

	// Throughput efficiency.
	if len(volumes) > 1 && sumFloat64(volumes) > 0 {
		out.NetworkEfficiency = math.Min(meanFloat64(volumes)/(stdDevFloat64(volumes)+epsilon)/1000, 1.0)
	}

	// Modularity: persistence of address change patterns.
	changes := diffFloat64(addresses)
	if len(changes) > 1 {
		if corr, ok := pearson(changes[:len(changes)-1], changes[1:]); ok {
			out.ModularityScore = math.Abs(corr)
		}
	}

	// Centralization: distance between peak and mean activity.
	if len(addresses) > 1 {
		if max := maxFloat64(addresses); max > 0 {
			out.CentralizationIndex = (max - meanFloat64(addresses)) / max
		}
	}

	return out
}

func (m *Model) defaultNetworkEffects() NetworkEffects {
	return NetworkEffects{
		LinearEffect:        0.5,
		QuadraticEffect:     0.7,
		LogarithmicEffect:   0.6,
		PowerLawExponent:    2.0,
		SaturationPoint:     m.params.MaxAddresses,
		MarginalUserValue:   0.0,
		ExternalityStrength: 0.4,
	}
}

// networkEffectsModeling fits the address/price relation under linear,
// quadratic, and logarithmic functional forms. Falls back to documented
// neutral defaults below 10 valid rows.
func (m *Model) networkEffectsModeling(series []Observation) NetworkEffects {
	var addresses, prices []float64
	for _, row := range series {
		if row.ActiveAddresses > 0 && row.Price > 0 {
			addresses = append(addresses, row.ActiveAddresses)
			prices = append(prices, row.Price)
		}
	}
	if len(addresses) < minValidRows {
		m.logger.WithField("valid_rows", len(addresses)).
			Warn("Not enough valid rows for network effects modeling, using defaults")
		return m.defaultNetworkEffects()
	}

	logAddresses := make([]float64, len(addresses))
	logPrices := make([]float64, len(addresses))
	squared := make([]float64, len(addresses))
	for i := range addresses {
		logAddresses[i] = math.Log(addresses[i])
		logPrices[i] = math.Log(prices[i])
		squared[i] = addresses[i] * addresses[i]
	}

	out := NetworkEffects{
		LinearEffect:      correlationOrZero(addresses, prices),
		QuadraticEffect:   correlationOrZero(squared, prices),
		LogarithmicEffect: correlationOrZero(logAddresses, logPrices),
	}

	slope, _, _ := linregress(logAddresses, logPrices)
	out.PowerLawExponent = clampFloat64(slope, 0.5, 3.0)

	currentAdoption := 0.0
	if m.params.MaxAddresses > 0 {
		currentAdoption = maxFloat64(addresses) / m.params.MaxAddresses
	}
	out.SaturationPoint = m.params.MaxAddresses * (1 - math.Exp(-5*currentAdoption))

	// Marginal user value: median price change per added address.
	addressDiffs := diffFloat64(addresses)
	priceDiffs := diffFloat64(prices)
	var marginals []float64
	for i := range addressDiffs {
		if addressDiffs[i] != 0 {
			marginals = append(marginals, priceDiffs[i]/addressDiffs[i])
		}
	}
	out.MarginalUserValue = medianFloat64(marginals)

	out.ExternalityStrength = out.QuadraticEffect * out.LogarithmicEffect
	return out
}
