package valuation

import "math"

// Tuning constants of the modified Metcalfe transform. These are calibration
// choices, not derived values; Options can override them.
const (
	// DefaultAddressExponent is the network-effect exponent (slightly below
	// the classic square law).
	DefaultAddressExponent = 1.8
	// DefaultDensityExponent weighs the active/total address ratio.
	DefaultDensityExponent = 0.5
	// DefaultVolumeExponent weighs transaction intensity.
	DefaultVolumeExponent = 0.3
)

// Adoption phase thresholds on active/max address ratio.
const (
	earlyAdoptionCeiling = 0.01
	growthPhaseCeiling   = 0.1
	mainstreamCeiling    = 0.5
)

// Adoption phase labels.
const (
	PhaseEarlyAdoption = "Early Adoption"
	PhaseGrowth        = "Growth Phase"
	PhaseMainstream    = "Mainstream Adoption"
	PhaseMaturity      = "Maturity Phase"
)

// NetworkValue is the classic Metcalfe value: modifier * n^2. Returns 0 for
// non-positive address counts.
func NetworkValue(activeAddresses, modifier float64) float64 {
	if activeAddresses <= 0 {
		return 0
	}
	return modifier * activeAddresses * activeAddresses
}

// ModifiedNetworkValue computes the maturity-aware Metcalfe value
// active^alpha * density^beta * log1p(volume)^gamma.
func (m *Model) ModifiedNetworkValue(activeAddresses, totalAddresses, transactionVolume float64) float64 {
	if activeAddresses <= 0 || totalAddresses <= 0 {
		return 0
	}

	density := activeAddresses / totalAddresses
	txIntensity := 0.0
	if transactionVolume > 0 {
		txIntensity = math.Log1p(transactionVolume)
	}

	return math.Pow(activeAddresses, m.opts.AddressExponent) *
		math.Pow(density, m.opts.DensityExponent) *
		math.Pow(txIntensity, m.opts.VolumeExponent)
}

// NetworkVelocity is transaction volume over market capitalization, a proxy
// for how actively the token circulates. Returns 0 for non-positive caps.
func NetworkVelocity(transactionVolume, marketCap float64) float64 {
	if marketCap <= 0 {
		return 0
	}
	return transactionVolume / marketCap
}

// AdoptionPhase maps the active/max address ratio onto the S-curve adoption
// phases. Negative ratios clamp to the earliest phase. The network age is
// accepted for interface parity but does not move the thresholds.
func (m *Model) AdoptionPhase(activeAddresses float64, networkAgeDays int) string {
	_ = networkAgeDays

	adoptionRate := 0.0
	if m.params.MaxAddresses > 0 {
		adoptionRate = activeAddresses / m.params.MaxAddresses
	}

	switch {
	case adoptionRate < earlyAdoptionCeiling:
		return PhaseEarlyAdoption
	case adoptionRate < growthPhaseCeiling:
		return PhaseGrowth
	case adoptionRate < mainstreamCeiling:
		return PhaseMainstream
	default:
		return PhaseMaturity
	}
}

// MetcalfeRatio is current price over model-predicted price; 0 when the
// prediction is degenerate.
func MetcalfeRatio(currentPrice, predictedPrice float64) float64 {
	if predictedPrice <= 0 {
		return 0
	}
	return currentPrice / predictedPrice
}
