package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfoundry/netvalue-go/internal/models"
)

func observationsRouter(store *stubStore) *gin.Engine {
	handler := NewObservationsHandler(store, nil, nil)
	router := gin.New()
	router.POST("/api/v1/market/observations", handler.IngestObservations)
	router.GET("/api/v1/market/observations/:asset", handler.GetObservations)
	return router
}

func postObservations(t *testing.T, router *gin.Engine, req models.IngestRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/market/observations", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, httpReq)
	return w
}

func TestIngestObservations(t *testing.T) {
	store := &stubStore{}
	router := observationsRouter(store)

	w := postObservations(t, router, models.IngestRequest{
		Asset:        "eth",
		Observations: observationInputs(3),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ETH", resp.Asset)
	assert.Equal(t, 3, resp.Inserted)

	assert.Equal(t, "ETH", store.insertedAsset, "asset symbol normalized before storage")
	assert.Equal(t, 3, store.insertedRows)
}

func TestIngestObservationsEmptyBatch(t *testing.T) {
	router := observationsRouter(&stubStore{})

	w := postObservations(t, router, models.IngestRequest{Asset: "BTC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestObservationsStoreError(t *testing.T) {
	router := observationsRouter(&stubStore{insertErr: assert.AnError})

	w := postObservations(t, router, models.IngestRequest{
		Asset:        "BTC",
		Observations: observationInputs(2),
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetObservations(t *testing.T) {
	store := &stubStore{series: storedObservations(4)}
	router := observationsRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/market/observations/btc?limit=50", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Asset string                      `json:"asset"`
		Data  []models.NetworkObservation `json:"data"`
		Total int                         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC", resp.Asset)
	assert.Equal(t, 4, resp.Total)
	assert.Len(t, resp.Data, 4)
	assert.Equal(t, 50, store.requestedLimit)
}

func TestGetObservationsLimitClamped(t *testing.T) {
	store := &stubStore{}
	router := observationsRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/market/observations/btc?limit=999999", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, store.requestedLimit, "out-of-range limit resets to the default")
}
