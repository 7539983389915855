package valuation

import "time"

// Observation is one row of the historical network series. Inputs are owned
// by the caller and never mutated.
type Observation struct {
	Date              time.Time `json:"date"`
	Price             float64   `json:"price"`
	ActiveAddresses   float64   `json:"active_addresses"`
	TotalAddresses    float64   `json:"total_addresses"`
	TransactionVolume float64   `json:"transaction_volume"`
	MarketCap         float64   `json:"market_cap"`
}

// FittedModel holds the ridge regression fit of log(price) on
// [log1p(network value), log1p(active addresses), velocity]. It lives for one
// Analyze invocation.
type FittedModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	TrainR2      float64   `json:"train_r_squared"`
	TestR2       float64   `json:"test_r_squared"`
	TrainMSE     float64   `json:"train_mse"`
	TestMSE      float64   `json:"test_mse"`

	scaler *featureScaler
}

// NetworkEffectCoef is the coefficient on the modified network value feature.
func (f *FittedModel) NetworkEffectCoef() float64 {
	if len(f.Coefficients) > 0 {
		return f.Coefficients[0]
	}
	return 0
}

// AddressEffectCoef is the coefficient on the active address feature.
func (f *FittedModel) AddressEffectCoef() float64 {
	if len(f.Coefficients) > 1 {
		return f.Coefficients[1]
	}
	return 0
}

// VelocityEffectCoef is the coefficient on the velocity feature.
func (f *FittedModel) VelocityEffectCoef() float64 {
	if len(f.Coefficients) > 2 {
		return f.Coefficients[2]
	}
	return 0
}

// TopologyAnalysis approximates network topology properties from the
// address/volume series.
type TopologyAnalysis struct {
	ClusteringCoefficient   float64 `json:"clustering_coefficient"`
	NetworkDensity          float64 `json:"network_density"`
	SmallWorldCoefficient   float64 `json:"small_world_coefficient"`
	DegreeDistributionPower float64 `json:"degree_distribution_power"`
	NetworkEfficiency       float64 `json:"network_efficiency"`
	ModularityScore         float64 `json:"modularity_score"`
	CentralizationIndex     float64 `json:"centralization_index"`
}

// NetworkEffects captures multi-layer network effect strengths under
// different functional forms.
type NetworkEffects struct {
	LinearEffect        float64 `json:"linear_effect"`
	QuadraticEffect     float64 `json:"quadratic_effect"`
	LogarithmicEffect   float64 `json:"logarithmic_effect"`
	PowerLawExponent    float64 `json:"power_law_exponent"`
	SaturationPoint     float64 `json:"network_saturation_point"`
	MarginalUserValue   float64 `json:"marginal_user_value"`
	ExternalityStrength float64 `json:"network_externality_strength"`
}

// SCurveParams are the fitted logistic growth parameters
// L / (1 + exp(-k(t-t0))).
type SCurveParams struct {
	CarryingCapacity float64 `json:"carrying_capacity"`
	GrowthRate       float64 `json:"growth_rate"`
	InflectionPoint  float64 `json:"inflection_point"`
}

// GrowthForecast is the ML-based address growth projection.
type GrowthForecast struct {
	PredictedAddresses []float64    `json:"predicted_addresses"`
	GrowthRateForecast []float64    `json:"growth_rate_forecast"`
	SCurve             SCurveParams `json:"s_curve_parameters"`
	SCurveFitR2        float64      `json:"s_curve_fit_r_squared"`
	CapacityEstimate   float64      `json:"network_capacity_estimate"`
	TimeToSaturation   *float64     `json:"time_to_saturation,omitempty"`
	GrowthAcceleration float64      `json:"growth_acceleration"`
}

// HealthMetrics is the comprehensive network health assessment. Every field
// is a [0,1] score.
type HealthMetrics struct {
	Resilience            float64 `json:"network_resilience"`
	DecentralizationScore float64 `json:"decentralization_score"`
	ActivityConcentration float64 `json:"activity_concentration"`
	Stability             float64 `json:"network_stability"`
	RetentionRate         float64 `json:"user_retention_rate"`
	UtilityScore          float64 `json:"network_utility_score"`
	EcosystemDiversity    float64 `json:"ecosystem_diversity"`
}

// ConfidenceInterval is a symmetric 95% band around a price projection.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Result aggregates a full network valuation analysis. It is created once per
// Analyze call and owned by the caller afterwards.
type Result struct {
	CurrentNetworkValue   float64 `json:"current_network_value"`
	PredictedPrice        float64 `json:"predicted_price"`
	MetcalfeRatio         float64 `json:"metcalfe_ratio"`
	ModelR2               float64 `json:"model_r_squared"`
	NetworkEffectStrength float64 `json:"network_effect_strength"`
	ActiveAddresses       int64   `json:"active_addresses"`
	NetworkVelocity       float64 `json:"network_velocity"`
	AdoptionPhase         string  `json:"adoption_phase"`

	PricePredictions    []float64            `json:"price_predictions"`
	NetworkValues       []float64            `json:"network_values"`
	Timestamps          []time.Time          `json:"timestamps"`
	Model               FittedModel          `json:"model_parameters"`
	ConfidenceIntervals []ConfidenceInterval `json:"confidence_intervals"`

	Topology       *TopologyAnalysis `json:"topology_analysis,omitempty"`
	NetworkEffects *NetworkEffects   `json:"network_effects,omitempty"`
	Growth         *GrowthForecast   `json:"growth_prediction,omitempty"`
	Health         *HealthMetrics    `json:"health_metrics,omitempty"`

	// Risk and performance metrics.
	NetworkVolatility float64 `json:"network_volatility"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	CalmarRatio       float64 `json:"calmar_ratio"`

	// Correlation analysis.
	PriceNetworkCorrelation  float64 `json:"price_network_correlation"`
	VolumeNetworkCorrelation float64 `json:"volume_network_correlation"`
	AddressPriceCorrelation  float64 `json:"address_price_correlation"`

	// Statistical measures of the address return series.
	Skewness         float64   `json:"skewness"`
	Kurtosis         float64   `json:"kurtosis"`
	JarqueBeraStat   float64   `json:"jarque_bera_stat"`
	JarqueBeraPValue float64   `json:"jarque_bera_pvalue"`
	Autocorrelation  []float64 `json:"autocorrelation"`

	// Trend and cycle metrics.
	TrendStrength         float64 `json:"trend_strength"`
	TrendDirection        int     `json:"trend_direction"`
	MomentumScore         float64 `json:"momentum_score"`
	MeanReversionTendency float64 `json:"mean_reversion_tendency"`
	CyclePosition         float64 `json:"cycle_position"`

	// Network efficiency and economics.
	NetworkEfficiencyScore float64 `json:"network_efficiency_score"`
	UserAcquisitionCost    float64 `json:"user_acquisition_cost"`
	NetworkROI             float64 `json:"network_roi"`
	EcosystemMaturity      float64 `json:"ecosystem_maturity"`
}
