package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grillwerk/printgate/internal/application/service"
	"github.com/grillwerk/printgate/internal/config"
	"github.com/grillwerk/printgate/internal/presentation/http/handler"
	"github.com/grillwerk/printgate/internal/presentation/http/routes"
	"github.com/grillwerk/printgate/pkg/fetch"
	"github.com/grillwerk/printgate/pkg/printer"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "printgate-test", Env: "test", Port: "0"},
		Printer: config.PrinterConfig{Type: "none", Width: 42},
		Raster: config.RasterConfig{
			Threshold: 110, MaxWidth: 320, Brightness: 1.0, Gamma: 1.0,
			Dither: true, CropPadding: 8, AutoCrop: true,
		},
		Barcode:   config.BarcodeConfig{Height: 80, ModuleWidth: 2},
		Fetch:     config.FetchConfig{Timeout: 2 * time.Second, MaxRedirects: 5},
		RateLimit: config.RateLimitConfig{Requests: 30, Duration: 60},
		Store:     config.StoreConfig{Name: "GRILLWERK"},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	svc := service.NewPrintService(
		printer.NewNullPrinter(),
		fetch.New(cfg.Fetch.Client()),
		cfg,
		zap.NewNop(),
	)

	return routes.Setup(&routes.Handlers{
		Print: handler.NewPrintHandler(svc),
	}, &routes.Deps{Cfg: cfg, Log: zap.NewNop()})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGetStatus(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/printer/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Configured bool `json:"configured"`
			Connected  bool `json:"connected"`
			LineWidth  int  `json:"line_width"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.False(t, resp.Data.Configured)
	require.False(t, resp.Data.Connected)
	require.Equal(t, 42, resp.Data.LineWidth)
}

func TestPrintLines(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/lines", gin.H{
		"lines": []string{"Zeile 1", "Zeile 2"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Empty list fails binding.
	w = doJSON(t, router, http.MethodPost, "/api/v1/printer/lines", gin.H{
		"lines": []string{},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintTicket(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/ticket", gin.H{
		"order": gin.H{
			"id": "A-1",
			"items": []gin.H{
				{"name": "Burger", "price": 7.90},
				{"name": "Cola", "price": 2.00, "quantity": 2, "category": "Drinks"},
			},
			"deliveryFee": 2.50,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Order struct {
				ID      string `json:"id"`
				Pricing struct {
					GrandTotal float64 `json:"grand_total"`
				} `json:"pricing"`
			} `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "A-1", resp.Data.Order.ID)
	require.InDelta(t, 14.40, resp.Data.Order.Pricing.GrandTotal, 1e-9)
}

func TestPrintTicketRejectsBadDocument(t *testing.T) {
	router := newTestRouter(t)

	// Missing order field fails binding.
	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/ticket", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Document without items fails normalization.
	w = doJSON(t, router, http.MethodPost, "/api/v1/printer/ticket", gin.H{
		"order": gin.H{"id": "A-2"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintBarcode(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/barcode", gin.H{
		"code":   "A-100",
		"copies": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/printer/barcode", gin.H{
		"copies": 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintRemoteTicket(t *testing.T) {
	router := newTestRouter(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]gin.H{
			{"id": "X-1", "items": []gin.H{{"name": "Burger", "price": 7.90}}},
			{"id": "X-2", "items": []gin.H{{"name": "Hotdog", "price": 4.50}}},
		})
	}))
	defer upstream.Close()

	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/ticket/remote", gin.H{
		"url": upstream.URL + "/orders/X-2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"X-2"`)

	// Unknown identifier resolves to 404.
	w = doJSON(t, router, http.MethodPost, "/api/v1/printer/ticket/remote", gin.H{
		"url": upstream.URL + "/orders/X-9",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTestPrint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/v1/printer/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
