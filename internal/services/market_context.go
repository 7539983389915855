package services

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/quantfoundry/netvalue-go/internal/models"
)

const (
	marketRSIPeriod = 14
	marketSMAPeriod = 20

	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// MarketContextService computes presentation-level technical context for an
// asset's price series. It rides alongside the valuation engine; the engine's
// results never depend on it.
type MarketContextService struct {
	logger *logrus.Logger
}

// NewMarketContextService creates a market context service.
func NewMarketContextService(logger *logrus.Logger) *MarketContextService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MarketContextService{logger: logger}
}

// Context computes RSI(14), SMA(20) and a trend label from the price series.
// It returns an error when the series is too short for the indicators.
func (s *MarketContextService) Context(prices []float64) (*models.MarketContext, error) {
	if len(prices) < marketSMAPeriod+1 {
		return nil, fmt.Errorf("insufficient price data for market context: need %d points, got %d", marketSMAPeriod+1, len(prices))
	}

	rsiIndicator := momentum.NewRsiWithPeriod[float64](marketRSIPeriod)
	rsiValues := helper.ChanToSlice(rsiIndicator.Compute(helper.SliceToChan(prices)))
	if len(rsiValues) == 0 {
		return nil, fmt.Errorf("RSI computation produced no values")
	}

	smaIndicator := trend.NewSmaWithPeriod[float64](marketSMAPeriod)
	smaValues := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(prices)))
	if len(smaValues) == 0 {
		return nil, fmt.Errorf("SMA computation produced no values")
	}

	rsi := rsiValues[len(rsiValues)-1]
	sma := smaValues[len(smaValues)-1]
	lastPrice := prices[len(prices)-1]

	ctx := &models.MarketContext{
		RSI:        rsi,
		SMA:        sma,
		TrendLabel: trendLabel(lastPrice, sma, rsi),
	}

	s.logger.WithFields(logrus.Fields{
		"rsi":   rsi,
		"sma":   sma,
		"trend": ctx.TrendLabel,
	}).Debug("Computed market context")

	return ctx, nil
}

func trendLabel(lastPrice, sma, rsi float64) string {
	switch {
	case rsi >= rsiOverbought:
		return "overbought"
	case rsi <= rsiOversold:
		return "oversold"
	case lastPrice > sma:
		return "bullish"
	case lastPrice < sma:
		return "bearish"
	default:
		return "neutral"
	}
}
