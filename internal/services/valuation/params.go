package valuation

import (
	"sort"
	"strings"
	"time"
)

// NetworkParams is the static per-asset configuration used to normalize
// adoption and saturation estimates.
type NetworkParams struct {
	GenesisDate  time.Time `json:"genesis_date"`
	MaxAddresses float64   `json:"max_addresses"`
	NetworkType  string    `json:"network_type"`
	Consensus    string    `json:"consensus"`
	Layer        int       `json:"layer"`
}

var networkParams = map[string]NetworkParams{
	"BTC": {
		GenesisDate:  time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC),
		MaxAddresses: 1e9,
		NetworkType:  "payment",
		Consensus:    "pow",
		Layer:        1,
	},
	"ETH": {
		GenesisDate:  time.Date(2015, 7, 30, 0, 0, 0, 0, time.UTC),
		MaxAddresses: 1e9,
		NetworkType:  "smart_contract",
		Consensus:    "pos",
		Layer:        1,
	},
	"ADA": {
		GenesisDate:  time.Date(2017, 9, 29, 0, 0, 0, 0, time.UTC),
		MaxAddresses: 1e8,
		NetworkType:  "smart_contract",
		Consensus:    "pos",
		Layer:        1,
	},
	"SOL": {
		GenesisDate:  time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC),
		MaxAddresses: 1e8,
		NetworkType:  "high_throughput",
		Consensus:    "pos",
		Layer:        1,
	},
	"MATIC": {
		GenesisDate:  time.Date(2020, 5, 30, 0, 0, 0, 0, time.UTC),
		MaxAddresses: 1e8,
		NetworkType:  "scaling",
		Consensus:    "pos",
		Layer:        2,
	},
}

// defaultNetworkParams covers assets without a dedicated profile.
var defaultNetworkParams = NetworkParams{
	GenesisDate:  time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
	MaxAddresses: 1e9,
	NetworkType:  "generic",
	Consensus:    "unknown",
	Layer:        1,
}

// ParamsFor looks up the network parameters for an asset symbol. Unknown
// assets fall back to generic defaults.
func ParamsFor(asset string) NetworkParams {
	if p, ok := networkParams[strings.ToUpper(asset)]; ok {
		return p
	}
	return defaultNetworkParams
}

// SupportedAssets returns the asset symbols with dedicated parameter profiles.
func SupportedAssets() []string {
	out := make([]string, 0, len(networkParams))
	for asset := range networkParams {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}
