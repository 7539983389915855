package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/quantfoundry/netvalue-go/internal/api"
	"github.com/quantfoundry/netvalue-go/internal/api/handlers"
	"github.com/quantfoundry/netvalue-go/internal/cache"
	"github.com/quantfoundry/netvalue-go/internal/config"
	"github.com/quantfoundry/netvalue-go/internal/database"
	"github.com/quantfoundry/netvalue-go/internal/logging"
	"github.com/quantfoundry/netvalue-go/internal/services"
)

func main() {
	// Local .env is optional; container environments set variables directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	repo := database.NewObservationRepository(db.Pool)
	resultCache := cache.NewAnalysisResultCache(redis.Client, cfg.Cache.ResultTTLDuration(), logger)
	marketContext := services.NewMarketContextService(logger)

	valuationHandler := handlers.NewValuationHandler(repo, resultCache, marketContext, cfg.Valuation, logger)
	observationsHandler := handlers.NewObservationsHandler(repo, resultCache, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, redis, valuationHandler, observationsHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go runObservationCleanup(cleanupCtx, repo, cfg.Cleanup, logger)

	go func() {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// runObservationCleanup periodically deletes observations past the retention
// window.
func runObservationCleanup(ctx context.Context, repo *database.ObservationRepository, cfg config.CleanupConfig, logger *logrus.Logger) {
	if cfg.ObservationRetentionDays <= 0 || cfg.CleanupIntervalMinutes <= 0 {
		logger.Info("Observation cleanup disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.CleanupIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -cfg.ObservationRetentionDays)
			deleted, err := repo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				logger.WithError(err).Warn("Observation cleanup failed")
				continue
			}
			if deleted > 0 {
				logger.WithField("deleted", deleted).Info("Removed observations past retention window")
			}
		}
	}
}
