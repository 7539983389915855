package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quantfoundry/netvalue-go/internal/cache"
	"github.com/quantfoundry/netvalue-go/internal/config"
	"github.com/quantfoundry/netvalue-go/internal/models"
	"github.com/quantfoundry/netvalue-go/internal/services"
	"github.com/quantfoundry/netvalue-go/internal/services/valuation"
)

// ObservationStore is the storage surface the valuation handler needs.
type ObservationStore interface {
	GetSeries(ctx context.Context, asset string, limit int) ([]models.NetworkObservation, error)
}

// ValuationHandler serves network valuation analysis requests.
type ValuationHandler struct {
	store       ObservationStore
	resultCache *cache.AnalysisResultCache
	market      *services.MarketContextService
	cfg         config.ValuationConfig
	logger      *logrus.Logger
}

// NewValuationHandler creates the valuation handler. resultCache and market
// may be nil; both are optional.
func NewValuationHandler(store ObservationStore, resultCache *cache.AnalysisResultCache, market *services.MarketContextService, cfg config.ValuationConfig, logger *logrus.Logger) *ValuationHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ValuationHandler{
		store:       store,
		resultCache: resultCache,
		market:      market,
		cfg:         cfg,
		logger:      logger,
	}
}

// effectiveOptions merges the configured defaults with per-request overrides.
func (h *ValuationHandler) effectiveOptions(asset string, req *models.AnalyzeRequest) valuation.Options {
	opts := valuation.Options{
		Asset:                  asset,
		EnableTopologyAnalysis: h.cfg.EnableTopologyAnalysis,
		EnableNetworkEffects:   h.cfg.EnableNetworkEffects,
		EnableMLPrediction:     h.cfg.EnableMLPrediction,
		EnableHealthMetrics:    h.cfg.EnableHealthMetrics,
		PolynomialDegree:       h.cfg.PolynomialDegree,
		PredictionHorizon:      h.cfg.PredictionHorizon,
		LookbackWindow:         h.cfg.LookbackWindow,
		AddressExponent:        h.cfg.AddressExponent,
		DensityExponent:        h.cfg.DensityExponent,
		VolumeExponent:         h.cfg.VolumeExponent,
		RidgeAlpha:             h.cfg.RidgeAlpha,
		Seed:                   h.cfg.Seed,
	}

	if req.EnableTopologyAnalysis != nil {
		opts.EnableTopologyAnalysis = *req.EnableTopologyAnalysis
	}
	if req.EnableNetworkEffects != nil {
		opts.EnableNetworkEffects = *req.EnableNetworkEffects
	}
	if req.EnableMLPrediction != nil {
		opts.EnableMLPrediction = *req.EnableMLPrediction
	}
	if req.EnableHealthMetrics != nil {
		opts.EnableHealthMetrics = *req.EnableHealthMetrics
	}
	if req.PredictionHorizon != nil && *req.PredictionHorizon > 0 {
		opts.PredictionHorizon = *req.PredictionHorizon
	}
	if req.LookbackWindow != nil && *req.LookbackWindow > 0 {
		opts.LookbackWindow = *req.LookbackWindow
	}

	return opts
}

// AnalyzeNetwork runs a full valuation analysis for an asset. The series
// comes inline with the request or, when absent, from storage.
func (h *ValuationHandler) AnalyzeNetwork(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	asset := strings.ToUpper(strings.TrimSpace(req.Asset))
	opts := h.effectiveOptions(asset, &req)

	var series []valuation.Observation
	if len(req.Observations) > 0 {
		series = make([]valuation.Observation, len(req.Observations))
		for i := range req.Observations {
			series[i] = req.Observations[i].ToValuationObservation()
		}
	} else {
		rows, err := h.store.GetSeries(c.Request.Context(), asset, opts.LookbackWindow)
		if err != nil {
			h.logger.WithError(err).WithField("asset", asset).Error("Failed to load observation series")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observation series"})
			return
		}
		series = models.ObservationSeries(rows)
	}

	var cacheKey string
	if h.resultCache != nil {
		cacheKey = h.resultCache.CacheKey(asset, opts, series)
		if cached, found := h.resultCache.Get(c.Request.Context(), cacheKey); found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	model := valuation.NewModel(opts, h.logger)
	result, err := model.Analyze(series, time.Now())
	if err != nil {
		var insufficientErr *valuation.InsufficientDataError
		if errors.As(err, &insufficientErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"valid_rows": insufficientErr.ValidRows,
				"required":   insufficientErr.Required,
			})
			return
		}
		h.logger.WithError(err).WithField("asset", asset).Error("Valuation analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	response := &models.AnalyzeResponse{
		AnalysisID: uuid.New().String(),
		Asset:      asset,
		Result:     result,
		Insights:   model.Insights(result),
		Cached:     false,
		Timestamp:  time.Now(),
	}

	if h.market != nil {
		prices := make([]float64, 0, len(series))
		for _, obs := range series {
			if obs.Price > 0 {
				prices = append(prices, obs.Price)
			}
		}
		if market, err := h.market.Context(prices); err == nil {
			response.Market = market
		} else {
			h.logger.WithError(err).WithField("asset", asset).Debug("Skipping market context")
		}
	}

	if h.resultCache != nil {
		h.resultCache.Set(c.Request.Context(), cacheKey, response)
	}

	c.JSON(http.StatusOK, response)
}

// GetSupportedAssets lists the assets with dedicated network parameter
// profiles. Unknown assets still analyze with generic defaults.
func (h *ValuationHandler) GetSupportedAssets(c *gin.Context) {
	assets := valuation.SupportedAssets()
	profiles := make([]models.AssetProfile, 0, len(assets))
	for _, asset := range assets {
		profiles = append(profiles, models.AssetProfile{
			Asset:  asset,
			Params: valuation.ParamsFor(asset),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"assets":    profiles,
		"total":     len(profiles),
		"timestamp": time.Now(),
	})
}
