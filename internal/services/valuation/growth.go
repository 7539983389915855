package valuation

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/optimize"
)

const (
	// ensembleTrees is the estimator count for both tree ensembles.
	ensembleTrees = 100
	// gbLearningRate is the gradient boosting shrinkage.
	gbLearningRate = 0.1
	// fallbackMonthlyGrowth is the compound growth assumed when the series
	// is too short to train on.
	fallbackMonthlyGrowth = 0.05
	// projectionStepDays is the forecast step width.
	projectionStepDays = 30
	// saturationFraction of carrying capacity defines "saturated".
	saturationFraction = 0.95
)

// timeFeatureRow builds the supervised feature vector for one observation:
// sequential index, days since genesis, calendar year/month, and the annual
// seasonality pair.
func timeFeatureRow(index int, date time.Time, genesis time.Time) []float64 {
	dayOfYear := float64(date.YearDay())
	return []float64{
		float64(index),
		date.Sub(genesis).Hours() / 24,
		float64(date.Year()),
		float64(date.Month()),
		math.Sin(2 * math.Pi * dayOfYear / 365),
		math.Cos(2 * math.Pi * dayOfYear / 365),
	}
}

// expandPolynomial raises each feature to the powers 1..degree.
func expandPolynomial(row []float64, degree int) []float64 {
	if degree < 2 {
		return row
	}
	out := make([]float64, 0, len(row)*degree)
	for _, v := range row {
		p := v
		for d := 1; d <= degree; d++ {
			out = append(out, p)
			p *= v
		}
	}
	return out
}

type growthPredictor func(row []float64) float64

func flatPredictor(value float64) growthPredictor {
	return func([]float64) float64 { return value }
}

// fallbackGrowthForecast is the flat compound-growth projection used when
// fewer than 10 observations are available.
func (m *Model) fallbackGrowthForecast(lastAddresses float64) GrowthForecast {
	horizon := m.opts.PredictionHorizon
	predicted := make([]float64, horizon)
	rates := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		predicted[i] = lastAddresses * math.Pow(1+fallbackMonthlyGrowth, float64(i+1))
		rates[i] = fallbackMonthlyGrowth
	}
	return GrowthForecast{
		PredictedAddresses: predicted,
		GrowthRateForecast: rates,
		SCurve:             SCurveParams{CarryingCapacity: 1e8, GrowthRate: 0.1, InflectionPoint: 50},
		SCurveFitR2:        0.5,
		CapacityEstimate:   1e8,
		GrowthAcceleration: 0,
	}
}

// growthForecast trains the four-model ensemble on the time-indexed feature
// matrix and projects address counts over the prediction horizon, then fits
// the logistic adoption curve. Never returns an error; every failure path
// substitutes a documented fallback.
func (m *Model) growthForecast(series []Observation) GrowthForecast {
	addresses := make([]float64, len(series))
	dates := make([]time.Time, len(series))
	for i, row := range series {
		addresses[i] = row.ActiveAddresses
		dates[i] = row.Date
	}

	if len(series) == 0 {
		return m.fallbackGrowthForecast(0)
	}
	last := addresses[len(addresses)-1]

	// One-step-ahead supervision: features of row i predict addresses[i+1].
	var features [][]float64
	var targets []float64
	for i := 0; i < len(series)-1; i++ {
		features = append(features, timeFeatureRow(i, dates[i], m.params.GenesisDate))
		targets = append(targets, addresses[i+1])
	}
	if len(features) < minValidRows {
		m.logger.WithField("rows", len(features)).
			Warn("Not enough observations for ML growth forecasting, using compound growth fallback")
		return m.fallbackGrowthForecast(last)
	}

	predictors := []growthPredictor{
		m.fitLinearGrowth(features, targets, last),
		m.fitPolynomialGrowth(features, targets, last),
		m.fitForestGrowth(features, targets),
		m.fitBoostedGrowth(features, targets),
	}

	horizon := m.opts.PredictionHorizon
	lastDate := dates[len(dates)-1]
	predicted := make([]float64, horizon)
	rates := make([]float64, horizon)
	for step := 1; step <= horizon; step++ {
		futureDate := lastDate.AddDate(0, 0, step*projectionStepDays)
		row := timeFeatureRow(len(dates)+step-1, futureDate, m.params.GenesisDate)

		var sum float64
		for _, p := range predictors {
			sum += p(row)
		}
		predicted[step-1] = sum / float64(len(predictors))
		if last > 0 {
			rates[step-1] = predicted[step-1]/last - 1
		}
	}

	sCurve, fitR2, timeToSaturation := m.fitAdoptionCurve(addresses)

	return GrowthForecast{
		PredictedAddresses: predicted,
		GrowthRateForecast: rates,
		SCurve:             sCurve,
		SCurveFitR2:        fitR2,
		CapacityEstimate:   sCurve.CarryingCapacity,
		TimeToSaturation:   timeToSaturation,
		GrowthAcceleration: growthAcceleration(addresses),
	}
}

func (m *Model) fitLinearGrowth(features [][]float64, targets []float64, last float64) growthPredictor {
	coef, intercept, ok := ridgeRegression(features, targets, m.opts.RidgeAlpha)
	if !ok {
		m.logger.Warn("Linear growth regressor failed to fit, carrying last value forward")
		return flatPredictor(last)
	}
	return func(row []float64) float64 {
		return dotProduct(row, coef) + intercept
	}
}

func (m *Model) fitPolynomialGrowth(features [][]float64, targets []float64, last float64) growthPredictor {
	degree := m.opts.PolynomialDegree
	expanded := make([][]float64, len(features))
	for i, row := range features {
		expanded[i] = expandPolynomial(row, degree)
	}
	scaler := fitScaler(expanded)
	coef, intercept, ok := ridgeRegression(scaler.transform(expanded), targets, m.opts.RidgeAlpha)
	if !ok {
		m.logger.Warn("Polynomial growth regressor failed to fit, carrying last value forward")
		return flatPredictor(last)
	}
	return func(row []float64) float64 {
		scaled := scaler.transformRow(expandPolynomial(row, degree))
		return dotProduct(scaled, coef) + intercept
	}
}

func (m *Model) fitForestGrowth(features [][]float64, targets []float64) growthPredictor {
	rng := rand.New(rand.NewSource(m.opts.Seed))
	forest := fitRandomForest(features, targets, ensembleTrees, rng)
	return forest.predict
}

func (m *Model) fitBoostedGrowth(features [][]float64, targets []float64) growthPredictor {
	model := fitGradientBoosting(features, targets, ensembleTrees, gbLearningRate)
	return model.predict
}

func logisticGrowth(t, capacity, rate, inflection float64) float64 {
	exponent := -rate * (t - inflection)
	if exponent > 500 {
		return 0
	}
	if exponent < -500 {
		return capacity
	}
	return capacity / (1 + math.Exp(exponent))
}

// fitAdoptionCurve fits the logistic S-curve to the address series by
// Nelder-Mead least squares. Initial guess: the asset's address ceiling, a
// 0.1 growth rate, and the series midpoint as inflection.
func (m *Model) fitAdoptionCurve(addresses []float64) (SCurveParams, float64, *float64) {
	fallback := SCurveParams{
		CarryingCapacity: m.params.MaxAddresses,
		GrowthRate:       0.1,
		InflectionPoint:  float64(len(addresses)) / 2,
	}

	sse := func(p []float64) float64 {
		var sum float64
		for i, a := range addresses {
			d := logisticGrowth(float64(i), p[0], p[1], p[2]) - a
			sum += d * d
		}
		if math.IsNaN(sum) || math.IsInf(sum, 0) {
			return math.MaxFloat64
		}
		return sum
	}

	problem := optimize.Problem{Func: sse}
	initial := []float64{fallback.CarryingCapacity, fallback.GrowthRate, fallback.InflectionPoint}
	result, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil || result == nil {
		m.logger.WithError(err).Warn("Logistic adoption curve fit did not converge, keeping initial guess")
		return fallback, 0.5, nil
	}

	capacity, rate, inflection := result.X[0], result.X[1], result.X[2]
	if capacity <= 0 || math.IsNaN(capacity) || math.IsNaN(rate) || math.IsNaN(inflection) {
		m.logger.Warn("Logistic adoption curve fit degenerate, keeping initial guess")
		return fallback, 0.5, nil
	}

	fitted := make([]float64, len(addresses))
	for i := range addresses {
		fitted[i] = logisticGrowth(float64(i), capacity, rate, inflection)
	}
	fitR2 := rSquared(addresses, fitted)

	params := SCurveParams{CarryingCapacity: capacity, GrowthRate: rate, InflectionPoint: inflection}

	// Time until the curve reaches 95% of capacity, solved algebraically.
	var timeToSaturation *float64
	currentRatio := addresses[len(addresses)-1] / capacity
	if currentRatio > 0 && currentRatio < saturationFraction && rate != 0 {
		inner := 1/currentRatio - 1
		if inner > 0 {
			tts := (math.Log(19) - math.Log(inner)) / rate
			if tts < 0 {
				tts = 0
			}
			timeToSaturation = &tts
		}
	}
	return params, fitR2, timeToSaturation
}

// growthAcceleration is the mean second difference over the last ten
// observations.
func growthAcceleration(addresses []float64) float64 {
	if len(addresses) <= 2 {
		return 0
	}
	recent := addresses
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	growth := diffFloat64(recent)
	if len(growth) < 2 {
		return 0
	}
	return meanFloat64(diffFloat64(growth))
}
