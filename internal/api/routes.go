package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantfoundry/netvalue-go/internal/api/handlers"
	"github.com/quantfoundry/netvalue-go/internal/database"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SetupRoutes wires the HTTP surface: health check, valuation analysis and
// observation storage.
func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, valuationHandler *handlers.ValuationHandler, observationsHandler *handlers.ObservationsHandler) {
	router.GET("/health", healthCheck(db, redis))

	v1 := router.Group("/api/v1")
	{
		valuation := v1.Group("/valuation")
		{
			valuation.POST("/analyze", valuationHandler.AnalyzeNetwork)
			valuation.GET("/assets", valuationHandler.GetSupportedAssets)
		}

		market := v1.Group("/market")
		{
			market.POST("/observations", observationsHandler.IngestObservations)
			market.GET("/observations/:asset", observationsHandler.GetObservations)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		if db != nil {
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				response.Services.Database = "error"
				response.Status = "degraded"
			}
		}

		if redis != nil {
			if err := redis.HealthCheck(c.Request.Context()); err != nil {
				response.Services.Redis = "error"
				response.Status = "degraded"
			}
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
