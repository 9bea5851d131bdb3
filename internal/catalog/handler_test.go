package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	r := chi.NewRouter()
	NewHandler(testLogger(), svc).MountRoutes(r)
	return r, svc
}

func TestHandlerListProducts(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var products []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 3)
	require.Equal(t, StockStatusLow, products[1].StockStatus)
}

func TestHandlerAddProductValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := `{"name":"","category":"grains","price":10}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body = `{"name":"Jaggery 500g","category":"sweeteners","price":60,"quantity":7,"low_stock_threshold":3}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, StockStatusIn, created.StockStatus)
}

func TestHandlerAdjustStock(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := `{"quantity":2,"reason":"stock count"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/p1/stock", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, 2, updated.Quantity)
	require.Equal(t, StockStatusLow, updated.StockStatus)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/missing/stock", strings.NewReader(body)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerValidateStock(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := `{"items":[{"product_id":"p3","quantity":1}]}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stock/validate", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Valid)
	require.Contains(t, resp.Errors, "Sunflower Oil 1L is currently out of stock")
}

func TestHandlerInventoryLogs(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	_, err := svc.AdjustQuantity(ctx, "p1", 9, "count", "")
	require.NoError(t, err)
	_, err = svc.AdjustQuantity(ctx, "p1", 6, "count", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/logs?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	require.Equal(t, 6, logs[0].NewQuantity)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/logs?limit=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
