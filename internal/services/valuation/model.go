package valuation

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a network valuation model. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	Asset string `json:"asset"`

	EnableTopologyAnalysis bool `json:"enable_topology_analysis"`
	EnableNetworkEffects   bool `json:"enable_network_effects"`
	EnableMLPrediction     bool `json:"enable_ml_prediction"`
	EnableHealthMetrics    bool `json:"enable_health_metrics"`

	PolynomialDegree  int `json:"polynomial_degree"`
	PredictionHorizon int `json:"prediction_horizon"`
	// LookbackWindow is a sizing hint for callers loading the series; the
	// model itself analyzes whatever it is given.
	LookbackWindow int `json:"lookback_window"`

	// Modified Metcalfe exponents; tuning constants, not fitted values.
	AddressExponent float64 `json:"address_exponent"`
	DensityExponent float64 `json:"density_exponent"`
	VolumeExponent  float64 `json:"volume_exponent"`

	// RidgeAlpha is the L2 penalty for all ridge fits.
	RidgeAlpha float64 `json:"ridge_alpha"`
	// Seed drives every pseudo-random choice (train/test shuffle, forest
	// bootstrap) so repeated analyses of the same input agree.
	Seed int64 `json:"seed"`
}

// DefaultOptions returns the standard configuration for an asset.
func DefaultOptions(asset string) Options {
	return Options{
		Asset:                  asset,
		EnableTopologyAnalysis: true,
		EnableNetworkEffects:   true,
		EnableMLPrediction:     true,
		EnableHealthMetrics:    true,
		PolynomialDegree:       3,
		PredictionHorizon:      24,
		LookbackWindow:         100,
		AddressExponent:        DefaultAddressExponent,
		DensityExponent:        DefaultDensityExponent,
		VolumeExponent:         DefaultVolumeExponent,
		RidgeAlpha:             1.0,
		Seed:                   42,
	}
}

// Model performs Metcalfe-style network valuation over a historical series.
// It is purely computational: no I/O, no shared mutable state, deterministic
// for a given input and seed.
type Model struct {
	opts   Options
	params NetworkParams
	logger *logrus.Logger
}

// NewModel creates a model for the configured asset. A nil logger falls back
// to the logrus standard logger.
func NewModel(opts Options, logger *logrus.Logger) *Model {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.PredictionHorizon <= 0 {
		opts.PredictionHorizon = 24
	}
	if opts.PolynomialDegree <= 0 {
		opts.PolynomialDegree = 3
	}
	if opts.AddressExponent == 0 {
		opts.AddressExponent = DefaultAddressExponent
	}
	if opts.DensityExponent == 0 {
		opts.DensityExponent = DefaultDensityExponent
	}
	if opts.VolumeExponent == 0 {
		opts.VolumeExponent = DefaultVolumeExponent
	}
	if opts.RidgeAlpha <= 0 {
		opts.RidgeAlpha = 1.0
	}
	return &Model{
		opts:   opts,
		params: ParamsFor(opts.Asset),
		logger: logger,
	}
}

// Options returns the effective model configuration.
func (m *Model) Options() Options { return m.opts }

// Params returns the network parameter profile in use.
func (m *Model) Params() NetworkParams { return m.params }

// Analyze runs the full valuation pipeline over the series, ordered by date
// ascending. asOf anchors network age and projection timestamps; it is an
// explicit argument so analyses are reproducible.
//
// The only possible error is *InsufficientDataError from the regression
// stage; every other sub-analysis degrades to documented defaults.
func (m *Model) Analyze(series []Observation, asOf time.Time) (*Result, error) {
	fitted, err := m.fitModel(series)
	if err != nil {
		return nil, err
	}

	latest := series[len(series)-1]
	total := latest.TotalAddresses
	if total <= 0 {
		total = latest.ActiveAddresses
	}

	currentNetworkValue := m.ModifiedNetworkValue(latest.ActiveAddresses, total, latest.TransactionVolume)
	predictedPrice, _ := m.predictPrice(fitted, latest.ActiveAddresses, total, latest.TransactionVolume, latest.MarketCap)

	networkAgeDays := int(asOf.Sub(m.params.GenesisDate).Hours() / 24)

	result := &Result{
		CurrentNetworkValue:   currentNetworkValue,
		PredictedPrice:        predictedPrice,
		MetcalfeRatio:         MetcalfeRatio(latest.Price, predictedPrice),
		ModelR2:               fitted.TestR2,
		NetworkEffectStrength: fitted.NetworkEffectCoef(),
		ActiveAddresses:       int64(latest.ActiveAddresses),
		NetworkVelocity:       NetworkVelocity(latest.TransactionVolume, latest.MarketCap),
		AdoptionPhase:         m.AdoptionPhase(latest.ActiveAddresses, networkAgeDays),
		Model:                 *fitted,
	}

	m.projectNetwork(result, fitted, latest, asOf)

	if m.opts.EnableTopologyAnalysis {
		topology := m.topologyAnalysis(series)
		result.Topology = &topology
	}
	if m.opts.EnableNetworkEffects {
		effects := m.networkEffectsModeling(series)
		result.NetworkEffects = &effects
	}
	if m.opts.EnableMLPrediction {
		growth := m.growthForecast(series)
		result.Growth = &growth
	}
	if m.opts.EnableHealthMetrics {
		health := m.healthMetrics(series)
		result.Health = &health
	}

	risk := m.riskMetrics(series)
	result.NetworkVolatility = risk.NetworkVolatility
	result.MaxDrawdown = risk.MaxDrawdown
	result.SharpeRatio = risk.SharpeRatio
	result.SortinoRatio = risk.SortinoRatio
	result.CalmarRatio = risk.CalmarRatio
	result.PriceNetworkCorrelation = risk.PriceNetworkCorrelation
	result.VolumeNetworkCorrelation = risk.VolumeNetworkCorrelation
	result.AddressPriceCorrelation = risk.AddressPriceCorrelation

	stats := m.statisticalMeasures(series)
	result.Skewness = stats.Skewness
	result.Kurtosis = stats.Kurtosis
	result.JarqueBeraStat = stats.JarqueBeraStat
	result.JarqueBeraPValue = stats.JarqueBeraPValue
	result.Autocorrelation = stats.Autocorrelation

	predictive := m.predictiveMetrics(series)
	result.TrendStrength = predictive.TrendStrength
	result.TrendDirection = predictive.TrendDirection
	result.MomentumScore = predictive.MomentumScore
	result.MeanReversionTendency = predictive.MeanReversionTendency
	result.CyclePosition = predictive.CyclePosition

	efficiency := m.efficiencyMetrics(series, asOf)
	result.NetworkEfficiencyScore = efficiency.NetworkEfficiencyScore
	result.UserAcquisitionCost = efficiency.UserAcquisitionCost
	result.NetworkROI = efficiency.NetworkROI
	result.EcosystemMaturity = efficiency.EcosystemMaturity

	return result, nil
}

// Per-step growth assumptions of the forward projection.
const (
	projectionVolumeGrowth    = 0.05
	projectionMarketCapGrowth = 0.02
	projectionTotalMultiplier = 1.2
)

// projectNetwork fills the forward price/network-value projections. Address
// growth slows as adoption approaches the ceiling; volume and market cap
// compound at conservative monthly rates.
func (m *Model) projectNetwork(result *Result, fitted *FittedModel, latest Observation, asOf time.Time) {
	horizon := m.opts.PredictionHorizon
	result.Timestamps = make([]time.Time, 0, horizon)
	result.NetworkValues = make([]float64, 0, horizon)
	result.PricePredictions = make([]float64, 0, horizon)
	result.ConfidenceIntervals = make([]ConfidenceInterval, 0, horizon)

	currentAdoption := 0.0
	if m.params.MaxAddresses > 0 {
		currentAdoption = latest.ActiveAddresses / m.params.MaxAddresses
	}
	growthRate := 0.1 * (1 - currentAdoption)
	margin := confidenceZ * math.Sqrt(fitted.TestMSE)

	for month := 0; month < horizon; month++ {
		futureDate := asOf.AddDate(0, 0, month*projectionStepDays)

		timeFactor := float64(month) / 12
		projectedAddresses := latest.ActiveAddresses * (1 + growthRate*timeFactor)
		if projectedAddresses > m.params.MaxAddresses {
			projectedAddresses = m.params.MaxAddresses
		}
		projectedVolume := latest.TransactionVolume * math.Pow(1+projectionVolumeGrowth, float64(month))
		projectedMarketCap := latest.MarketCap * math.Pow(1+projectionMarketCapGrowth, float64(month))
		projectedTotal := projectedAddresses * projectionTotalMultiplier

		networkValue := m.ModifiedNetworkValue(projectedAddresses, projectedTotal, projectedVolume)
		price, _ := m.predictPrice(fitted, projectedAddresses, projectedTotal, projectedVolume, projectedMarketCap)

		interval := ConfidenceInterval{}
		if price > 0 {
			logPrice := math.Log(price)
			interval.Lower = math.Exp(logPrice - margin)
			interval.Upper = math.Exp(logPrice + margin)
		}

		result.Timestamps = append(result.Timestamps, futureDate)
		result.NetworkValues = append(result.NetworkValues, networkValue)
		result.PricePredictions = append(result.PricePredictions, price)
		result.ConfidenceIntervals = append(result.ConfidenceIntervals, interval)
	}
}

var adoptionPhaseDescriptions = map[string]string{
	PhaseEarlyAdoption: "Rapid growth potential, high volatility expected",
	PhaseGrowth:        "Strong network effects emerging, increasing stability",
	PhaseMainstream:    "Mature network effects, reduced volatility",
	PhaseMaturity:      "Established network, focus on utility and efficiency",
}

// Insights turns the numeric result into the human-readable labels shown on
// dashboards. These strings are presentation only; downstream systems should
// not parse them.
func (m *Model) Insights(result *Result) map[string]string {
	insights := make(map[string]string, 4)

	switch {
	case result.ModelR2 > 0.7:
		insights["model_quality"] = "Strong network effect - Metcalfe's Law explains price well"
	case result.ModelR2 > 0.5:
		insights["model_quality"] = "Moderate network effect - Some correlation with network growth"
	default:
		insights["model_quality"] = "Weak network effect - Price may be driven by other factors"
	}

	switch {
	case result.MetcalfeRatio > 1.5:
		insights["valuation"] = "Overvalued - Price significantly above network value"
	case result.MetcalfeRatio > 1.2:
		insights["valuation"] = "Slightly overvalued - Price premium to network fundamentals"
	case result.MetcalfeRatio > 0.8:
		insights["valuation"] = "Fair value - Price aligned with network metrics"
	default:
		insights["valuation"] = "Undervalued - Price below network fundamental value"
	}

	switch {
	case result.NetworkVelocity > 10:
		insights["network_usage"] = "High velocity - Active trading and usage"
	case result.NetworkVelocity > 5:
		insights["network_usage"] = "Moderate velocity - Balanced usage and holding"
	default:
		insights["network_usage"] = "Low velocity - Strong store of value behavior"
	}

	description, ok := adoptionPhaseDescriptions[result.AdoptionPhase]
	if !ok {
		description = "Unknown phase"
	}
	insights["adoption_status"] = "Network in " + result.AdoptionPhase + " - " + description

	return insights
}
