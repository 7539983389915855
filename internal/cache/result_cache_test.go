package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/netvalue-go/internal/models"
	"github.com/quantfoundry/netvalue-go/internal/services/valuation"
)

func newTestCache(t *testing.T) (*AnalysisResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAnalysisResultCache(client, 15*time.Minute, nil), mr
}

func sampleSeries(n int, priceScale float64) []valuation.Observation {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]valuation.Observation, n)
	for i := range series {
		active := 1e6 * (1 + 0.05*float64(i))
		series[i] = valuation.Observation{
			Date:              start.AddDate(0, i, 0),
			Price:             priceScale * 100 * (1 + 0.04*float64(i)),
			ActiveAddresses:   active,
			TotalAddresses:    active * 1.6,
			TransactionVolume: active * 12,
			MarketCap:         priceScale * active * 2000,
		}
	}
	return series
}

func sampleResponse(asset string) *models.AnalyzeResponse {
	return &models.AnalyzeResponse{
		AnalysisID: "test-analysis",
		Asset:      asset,
		Result:     &valuation.Result{PredictedPrice: 123.45, MetcalfeRatio: 1.1},
		Insights:   map[string]string{"valuation": "Fair value - Price aligned with network metrics"},
		Timestamp:  time.Now().UTC(),
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	c, _ := newTestCache(t)

	base := valuation.DefaultOptions("BTC")
	changed := base
	changed.PredictionHorizon = 12
	series := sampleSeries(36, 1)

	keyA := c.CacheKey("BTC", base, series)
	keyB := c.CacheKey("BTC", changed, series)
	keyC := c.CacheKey("BTC", base, sampleSeries(40, 1))

	assert.NotEqual(t, keyA, keyB, "different options must not share a key")
	assert.NotEqual(t, keyA, keyC, "different series lengths must not share a key")
	assert.Equal(t, keyA, c.CacheKey("BTC", base, sampleSeries(36, 1)), "key derivation is stable")
}

func TestCacheKeyDependsOnSeriesContents(t *testing.T) {
	c, _ := newTestCache(t)
	opts := valuation.DefaultOptions("BTC")

	keyA := c.CacheKey("BTC", opts, sampleSeries(36, 1))
	keyB := c.CacheKey("BTC", opts, sampleSeries(36, 1000))

	assert.NotEqual(t, keyA, keyB, "equal-length series with different values must not share a key")

	shifted := sampleSeries(36, 1)
	for i := range shifted {
		shifted[i].Date = shifted[i].Date.AddDate(1, 0, 0)
	}
	assert.NotEqual(t, c.CacheKey("BTC", opts, sampleSeries(36, 1)), c.CacheKey("BTC", opts, shifted),
		"same values on different dates must not share a key")
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key := c.CacheKey("BTC", valuation.DefaultOptions("BTC"), sampleSeries(36, 1))
	_, found := c.Get(ctx, key)
	assert.False(t, found)

	c.Set(ctx, key, sampleResponse("BTC"))

	cached, found := c.Get(ctx, key)
	require.True(t, found)
	assert.Equal(t, "BTC", cached.Asset)
	assert.Equal(t, 123.45, cached.Result.PredictedPrice)
	assert.Equal(t, "test-analysis", cached.AnalysisID)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := c.CacheKey("ETH", valuation.DefaultOptions("ETH"), sampleSeries(24, 1))
	c.Set(ctx, key, sampleResponse("ETH"))

	mr.FastForward(16 * time.Minute)

	_, found := c.Get(ctx, key)
	assert.False(t, found)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	btcKey := c.CacheKey("BTC", valuation.DefaultOptions("BTC"), sampleSeries(36, 1))
	ethKey := c.CacheKey("ETH", valuation.DefaultOptions("ETH"), sampleSeries(36, 1))
	c.Set(ctx, btcKey, sampleResponse("BTC"))
	c.Set(ctx, ethKey, sampleResponse("ETH"))

	c.Invalidate(ctx, "BTC")

	_, found := c.Get(ctx, btcKey)
	assert.False(t, found, "BTC entries dropped")
	_, found = c.Get(ctx, ethKey)
	assert.True(t, found, "other assets untouched")
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := c.CacheKey("BTC", valuation.DefaultOptions("BTC"), sampleSeries(36, 1))
	require.NoError(t, mr.Set(key, "not json"))

	_, found := c.Get(ctx, key)
	assert.False(t, found)
	assert.Equal(t, int64(1), c.Stats().Misses)
}
