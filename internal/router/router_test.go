package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bamskydbest/pharm-back/internal/config"
	"github.com/bamskydbest/pharm-back/internal/middleware"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		JWTSecret:            "router-secret",
		PharmacyName:         "Test Pharmacy",
		LoyaltyPointsDivisor: 10,
		ExpiryCriticalDays:   30,
		ExpiryWarningDays:    90,
		DeductionMaxRetries:  3,
		JobMaxAttempts:       5,
	}
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	tok, err := middleware.SignToken("router-secret", model.Principal{
		ID: uuid.New(), Name: "Kwame", Role: role, BranchID: uuid.New(),
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func serve(r http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

// Only paths rejected before reaching a repository are exercised here; the
// database-backed flow lives in the integration suite.
func TestRoutes_AuthAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, _ := New(testConfig(), nil, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/v1/sales", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/v1/inventory", ""))

	pharmacist := tokenFor(t, model.RolePharmacist)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/v1/sales", pharmacist))

	cashier := tokenFor(t, model.RoleCashier)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/v1/inventory/stock-in", cashier))
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/v1/inventory/adjust", cashier))
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/v1/reports/stock", cashier))

	// Bound before the service is called.
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/v1/sales/not-a-uuid", cashier))
	accountant := tokenFor(t, model.RoleAccountant)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/v1/reports/stock", accountant))
}

func TestRoutes_HealthWithoutBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, _ := New(testConfig(), nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/health", ""))
}

func TestRoutes_SwaggerHiddenInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	r, _ := New(cfg, nil, nil)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/swagger/index.html", ""))
	gin.SetMode(gin.TestMode)
}
