package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendabot/backend/config"
	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/infrastructure/catalog"
	"github.com/tiendabot/backend/internal/infrastructure/store"
	"github.com/tiendabot/backend/internal/usecase"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := []domain.Product{
		{Description: "ARROZ DIANA 500G", Price: 2800, Keywords: []string{"arroz", "diana"}},
		{Description: "LECHE ALPINA 1L", Price: 4500, Keywords: []string{"leche", "alpina"}},
	}

	orders := usecase.NewOrderService(store.NewMemoryOrderStore(), nil)
	requests := usecase.NewRequestService(
		catalog.NewStatic(products),
		usecase.NewSearchService(usecase.SearchServiceConfig{}, nil),
		usecase.NewResolver(usecase.ResolverConfig{}, nil, nil),
		orders,
		nil,
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
	}
	return SetupRouter(cfg, NewHandler(requests, orders), nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := testRouter(t)

	w := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t)

	t.Run("missing query", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/search", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("finds products", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/search?q=arroz", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Results []domain.SearchResult `json:"results"`
			Count   int                   `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "ARROZ DIANA 500G", body.Results[0].Product.Description)
	})
}

func TestProcessRequestEndpoint(t *testing.T) {
	router := testRouter(t)

	t.Run("rejects incomplete body", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/requests", `{"customerId": "c1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("resolves and fills the cart", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/requests", `{"customerId": "c1", "text": "2 arroces"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result usecase.ProcessResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Len(t, result.Matches, 1)
		assert.Equal(t, "ARROZ DIANA 500G", result.Matches[0].Product.Description)
		assert.Equal(t, 2, result.Matches[0].Quantity)
		require.NotNil(t, result.Order)
		assert.Equal(t, 5600.0, result.Order.Total)
	})

	t.Run("order is readable afterwards", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/orders/c1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var order domain.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		assert.Len(t, order.Items, 1)
	})
}

func TestOrderEndpoints(t *testing.T) {
	router := testRouter(t)

	t.Run("get missing order", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/orders/nobody", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("confirm missing order", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/orders/nobody/confirm", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("confirm and clear", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/requests", `{"customerId": "c2", "text": "una leche"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodPost, "/api/v1/orders/c2/confirm", "")
		require.Equal(t, http.StatusOK, w.Code)

		var order domain.Order
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		assert.Equal(t, domain.OrderConfirmed, order.Status)

		w = doJSON(router, http.MethodGet, "/api/v1/orders/c2", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/requests", `{"customerId": "c3", "text": "una leche"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodDelete, "/api/v1/orders/c3", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(router, http.MethodDelete, "/api/v1/orders/c3", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
