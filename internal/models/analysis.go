package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfoundry/netvalue-go/internal/services/valuation"
)

// ObservationInput is an inline observation row on an analyze or ingest
// request.
type ObservationInput struct {
	Date              time.Time       `json:"date" binding:"required"`
	Price             decimal.Decimal `json:"price"`
	ActiveAddresses   int64           `json:"active_addresses"`
	TotalAddresses    int64           `json:"total_addresses"`
	TransactionVolume decimal.Decimal `json:"transaction_volume"`
	MarketCap         decimal.Decimal `json:"market_cap"`
}

// ToValuationObservation converts an input row into the engine's input type.
func (o *ObservationInput) ToValuationObservation() valuation.Observation {
	return valuation.Observation{
		Date:              o.Date,
		Price:             o.Price.InexactFloat64(),
		ActiveAddresses:   float64(o.ActiveAddresses),
		TotalAddresses:    float64(o.TotalAddresses),
		TransactionVolume: o.TransactionVolume.InexactFloat64(),
		MarketCap:         o.MarketCap.InexactFloat64(),
	}
}

// AnalyzeRequest triggers a network valuation analysis. When Observations is
// empty the series is loaded from storage.
type AnalyzeRequest struct {
	Asset        string             `json:"asset" binding:"required"`
	Observations []ObservationInput `json:"observations,omitempty"`

	// Optional model overrides; nil fields keep the configured defaults.
	EnableTopologyAnalysis *bool `json:"enable_topology_analysis,omitempty"`
	EnableNetworkEffects   *bool `json:"enable_network_effects,omitempty"`
	EnableMLPrediction     *bool `json:"enable_ml_prediction,omitempty"`
	EnableHealthMetrics    *bool `json:"enable_health_metrics,omitempty"`
	PredictionHorizon      *int  `json:"prediction_horizon,omitempty"`
	LookbackWindow         *int  `json:"lookback_window,omitempty"`
}

// AnalyzeResponse is the full analysis envelope returned by the API.
type AnalyzeResponse struct {
	AnalysisID string            `json:"analysis_id"`
	Asset      string            `json:"asset"`
	Result     *valuation.Result `json:"result"`
	Insights   map[string]string `json:"insights"`
	Market     *MarketContext    `json:"market_context,omitempty"`
	Cached     bool              `json:"cached"`
	Timestamp  time.Time         `json:"timestamp"`
}

// MarketContext is presentation-level technical context on the price series.
type MarketContext struct {
	RSI        float64 `json:"rsi"`
	SMA        float64 `json:"sma"`
	TrendLabel string  `json:"trend_label"`
}

// IngestRequest stores observation rows for an asset.
type IngestRequest struct {
	Asset        string             `json:"asset" binding:"required"`
	Observations []ObservationInput `json:"observations" binding:"required"`
}

// IngestResponse reports how many rows were stored.
type IngestResponse struct {
	Asset     string    `json:"asset"`
	Inserted  int       `json:"inserted"`
	Timestamp time.Time `json:"timestamp"`
}

// AssetProfile describes one supported network parameter profile.
type AssetProfile struct {
	Asset  string                  `json:"asset"`
	Params valuation.NetworkParams `json:"params"`
}
