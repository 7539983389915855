package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfoundry/netvalue-go/internal/services/valuation"
)

// NetworkObservation is one stored row of a network metric series. Monetary
// fields use decimal at the boundary; the analytical engine works in float64.
type NetworkObservation struct {
	ID                int64           `json:"id" db:"id"`
	Asset             string          `json:"asset" db:"asset"`
	ObservedAt        time.Time       `json:"observed_at" db:"observed_at"`
	Price             decimal.Decimal `json:"price" db:"price"`
	ActiveAddresses   int64           `json:"active_addresses" db:"active_addresses"`
	TotalAddresses    int64           `json:"total_addresses" db:"total_addresses"`
	TransactionVolume decimal.Decimal `json:"transaction_volume" db:"transaction_volume"`
	MarketCap         decimal.Decimal `json:"market_cap" db:"market_cap"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// ToValuationObservation converts a stored row into the engine's input type.
func (o *NetworkObservation) ToValuationObservation() valuation.Observation {
	return valuation.Observation{
		Date:              o.ObservedAt,
		Price:             o.Price.InexactFloat64(),
		ActiveAddresses:   float64(o.ActiveAddresses),
		TotalAddresses:    float64(o.TotalAddresses),
		TransactionVolume: o.TransactionVolume.InexactFloat64(),
		MarketCap:         o.MarketCap.InexactFloat64(),
	}
}

// ObservationSeries converts stored rows into the engine's input series.
func ObservationSeries(rows []NetworkObservation) []valuation.Observation {
	out := make([]valuation.Observation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToValuationObservation()
	}
	return out
}
