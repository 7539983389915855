package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/quantfoundry/netvalue-go/internal/cache"
	"github.com/quantfoundry/netvalue-go/internal/models"
)

// ObservationWriter is the storage surface the observations handler needs.
type ObservationWriter interface {
	InsertBatch(ctx context.Context, asset string, rows []models.NetworkObservation) (int, error)
	GetSeries(ctx context.Context, asset string, limit int) ([]models.NetworkObservation, error)
}

// ObservationsHandler manages the stored network observation series.
type ObservationsHandler struct {
	store       ObservationWriter
	resultCache *cache.AnalysisResultCache
	logger      *logrus.Logger
}

// NewObservationsHandler creates the observations handler. resultCache may
// be nil.
func NewObservationsHandler(store ObservationWriter, resultCache *cache.AnalysisResultCache, logger *logrus.Logger) *ObservationsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ObservationsHandler{
		store:       store,
		resultCache: resultCache,
		logger:      logger,
	}
}

// IngestObservations stores a batch of observation rows for an asset and
// invalidates any cached analyses for it.
func (h *ObservationsHandler) IngestObservations(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Observations) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one observation is required"})
		return
	}

	asset := strings.ToUpper(strings.TrimSpace(req.Asset))
	rows := make([]models.NetworkObservation, len(req.Observations))
	for i, obs := range req.Observations {
		rows[i] = models.NetworkObservation{
			Asset:             asset,
			ObservedAt:        obs.Date,
			Price:             obs.Price,
			ActiveAddresses:   obs.ActiveAddresses,
			TotalAddresses:    obs.TotalAddresses,
			TransactionVolume: obs.TransactionVolume,
			MarketCap:         obs.MarketCap,
		}
	}

	inserted, err := h.store.InsertBatch(c.Request.Context(), asset, rows)
	if err != nil {
		h.logger.WithError(err).WithField("asset", asset).Error("Failed to store observations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store observations"})
		return
	}

	if h.resultCache != nil {
		h.resultCache.Invalidate(c.Request.Context(), asset)
	}

	h.logger.WithFields(logrus.Fields{
		"asset":    asset,
		"inserted": inserted,
	}).Info("Stored observation batch")

	c.JSON(http.StatusCreated, models.IngestResponse{
		Asset:     asset,
		Inserted:  inserted,
		Timestamp: time.Now(),
	})
}

// GetObservations returns the most recent stored observations for an asset
// in ascending date order.
func (h *ObservationsHandler) GetObservations(c *gin.Context) {
	asset := strings.ToUpper(strings.TrimSpace(c.Param("asset")))
	if asset == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Asset is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	rows, err := h.store.GetSeries(c.Request.Context(), asset, limit)
	if err != nil {
		h.logger.WithError(err).WithField("asset", asset).Error("Failed to load observations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load observations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asset":     asset,
		"data":      rows,
		"total":     len(rows),
		"timestamp": time.Now(),
	})
}
