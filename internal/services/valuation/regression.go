package valuation

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// featureScaler standardizes features to zero mean and unit variance. It is
// fitted on training rows only and reused verbatim for prediction.
type featureScaler struct {
	means []float64
	stds  []float64
}

func fitScaler(rows [][]float64) *featureScaler {
	if len(rows) == 0 {
		return &featureScaler{}
	}
	p := len(rows[0])
	s := &featureScaler{
		means: make([]float64, p),
		stds:  make([]float64, p),
	}
	for j := 0; j < p; j++ {
		col := make([]float64, len(rows))
		for i, row := range rows {
			col[i] = row[j]
		}
		s.means[j] = meanFloat64(col)
		sd := stdDevFloat64(col)
		if sd == 0 {
			// Constant column: leave it at zero after centering.
			sd = 1
		}
		s.stds[j] = sd
	}
	return s
}

func (s *featureScaler) transformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if j < len(s.means) {
			out[j] = (v - s.means[j]) / s.stds[j]
		} else {
			out[j] = v
		}
	}
	return out
}

func (s *featureScaler) transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.transformRow(row)
	}
	return out
}

// ridgeRegression fits y = intercept + X*coef with an L2 penalty on the
// coefficients (the intercept is unpenalized). Solved through the normal
// equations on centered data.
func ridgeRegression(rows [][]float64, y []float64, alpha float64) (coef []float64, intercept float64, ok bool) {
	n := len(rows)
	if n == 0 || len(y) != n {
		return nil, 0, false
	}
	p := len(rows[0])
	if p == 0 {
		return nil, meanFloat64(y), false
	}

	colMeans := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			colMeans[j] += rows[i][j]
		}
		colMeans[j] /= float64(n)
	}
	yMean := meanFloat64(y)

	// Gram matrix of the centered design plus the ridge diagonal.
	gram := mat.NewDense(p, p, nil)
	rhs := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += (rows[i][j] - colMeans[j]) * (rows[i][k] - colMeans[k])
			}
			gram.Set(j, k, sum)
			gram.Set(k, j, sum)
		}
		gram.Set(j, j, gram.At(j, j)+alpha)

		var sum float64
		for i := 0; i < n; i++ {
			sum += (rows[i][j] - colMeans[j]) * (y[i] - yMean)
		}
		rhs.SetVec(j, sum)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(gram, rhs); err != nil {
		return nil, 0, false
	}

	coef = make([]float64, p)
	intercept = yMean
	for j := 0; j < p; j++ {
		coef[j] = beta.AtVec(j)
		intercept -= coef[j] * colMeans[j]
	}
	for _, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, 0, false
		}
	}
	return coef, intercept, true
}

func dotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i < len(b) {
			sum += a[i] * b[i]
		}
	}
	return sum
}

func rSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	mean := meanFloat64(actual)
	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		t := actual[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func meanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// buildRegressionData derives the per-row feature vectors
// [log1p(modified network value), log1p(active addresses), velocity] and the
// log(price) targets, skipping rows with non-positive price, addresses, or
// market cap.
func (m *Model) buildRegressionData(series []Observation) (features [][]float64, targets []float64) {
	for _, row := range series {
		if row.ActiveAddresses <= 0 || row.Price <= 0 || row.MarketCap <= 0 {
			continue
		}

		total := row.TotalAddresses
		if total <= 0 {
			total = row.ActiveAddresses
		}

		networkValue := m.ModifiedNetworkValue(row.ActiveAddresses, total, row.TransactionVolume)
		velocity := NetworkVelocity(row.TransactionVolume, row.MarketCap)

		features = append(features, []float64{
			math.Log1p(networkValue),
			math.Log1p(row.ActiveAddresses),
			velocity,
		})
		targets = append(targets, math.Log(row.Price))
	}
	return features, targets
}

// fitModel fits the ridge regression of log price on the network features
// with a deterministic 80/20 train/test split.
func (m *Model) fitModel(series []Observation) (*FittedModel, error) {
	features, targets := m.buildRegressionData(series)
	if len(features) < minValidRows {
		return nil, &InsufficientDataError{ValidRows: len(features), Required: minValidRows}
	}

	n := len(features)
	rng := rand.New(rand.NewSource(m.opts.Seed))
	perm := rng.Perm(n)
	testSize := int(math.Ceil(0.2 * float64(n)))
	if testSize < 1 {
		testSize = 1
	}

	var trainX, testX [][]float64
	var trainY, testY []float64
	for i, idx := range perm {
		if i < testSize {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		}
	}

	scaler := fitScaler(trainX)
	trainScaled := scaler.transform(trainX)
	testScaled := scaler.transform(testX)

	coef, intercept, ok := ridgeRegression(trainScaled, trainY, m.opts.RidgeAlpha)
	if !ok {
		// The ridge diagonal keeps the system non-singular for any real
		// input; a failure here means the features were degenerate.
		return nil, &InsufficientDataError{ValidRows: len(features), Required: minValidRows}
	}

	predict := func(rows [][]float64) []float64 {
		out := make([]float64, len(rows))
		for i, row := range rows {
			out[i] = dotProduct(row, coef) + intercept
		}
		return out
	}
	trainPred := predict(trainScaled)
	testPred := predict(testScaled)

	return &FittedModel{
		Coefficients: coef,
		Intercept:    intercept,
		TrainR2:      rSquared(trainY, trainPred),
		TestR2:       rSquared(testY, testPred),
		TrainMSE:     meanSquaredError(trainY, trainPred),
		TestMSE:      meanSquaredError(testY, testPred),
		scaler:       scaler,
	}, nil
}

// predictPrice reconstructs the model features for a network state and
// returns the predicted price with a symmetric 95% confidence band on the log
// scale. Degenerate inputs yield 0 and an empty band instead of an error.
func (m *Model) predictPrice(fitted *FittedModel, activeAddresses, totalAddresses, transactionVolume, marketCap float64) (float64, ConfidenceInterval) {
	if fitted == nil || fitted.scaler == nil {
		return 0, ConfidenceInterval{}
	}

	networkValue := m.ModifiedNetworkValue(activeAddresses, totalAddresses, transactionVolume)
	if networkValue <= 0 {
		return 0, ConfidenceInterval{}
	}
	velocity := NetworkVelocity(transactionVolume, marketCap)

	row := fitted.scaler.transformRow([]float64{
		math.Log1p(networkValue),
		math.Log1p(activeAddresses),
		velocity,
	})
	logPrice := dotProduct(row, fitted.Coefficients) + fitted.Intercept
	if math.IsNaN(logPrice) || math.IsInf(logPrice, 0) {
		return 0, ConfidenceInterval{}
	}

	margin := confidenceZ * math.Sqrt(fitted.TestMSE)
	return math.Exp(logPrice), ConfidenceInterval{
		Lower: math.Exp(logPrice - margin),
		Upper: math.Exp(logPrice + margin),
	}
}

// confidenceZ is the two-sided 95% normal quantile.
const confidenceZ = 1.96
