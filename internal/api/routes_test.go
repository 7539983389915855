package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/netvalue-go/internal/api/handlers"
	"github.com/quantfoundry/netvalue-go/internal/config"
	"github.com/quantfoundry/netvalue-go/internal/models"
)

type emptyStore struct{}

func (emptyStore) GetSeries(context.Context, string, int) ([]models.NetworkObservation, error) {
	return nil, nil
}

func (emptyStore) InsertBatch(context.Context, string, []models.NetworkObservation) (int, error) {
	return 0, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := emptyStore{}
	valuationHandler := handlers.NewValuationHandler(store, nil, nil, config.ValuationConfig{
		PredictionHorizon: 24,
		PolynomialDegree:  3,
		LookbackWindow:    100,
		RidgeAlpha:        1.0,
		Seed:              42,
	}, nil)
	observationsHandler := handlers.NewObservationsHandler(store, nil, nil)

	SetupRoutes(router, nil, nil, valuationHandler, observationsHandler)
	return router
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Services.Database)
	assert.Equal(t, "ok", resp.Services.Redis)
}

func TestRoutesRegistered(t *testing.T) {
	router := testRouter()

	// Analysis of an empty stored series reports insufficient data rather
	// than a routing miss.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/valuation/analyze",
		jsonBody(t, models.AnalyzeRequest{Asset: "BTC"}))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/valuation/assets", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/market/observations/BTC", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
