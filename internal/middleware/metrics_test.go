package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
)

func TestMetricsLabelsRouteAndAcademicType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	sessions := sessionResolverStub{claims: &models.JWTClaims{UserID: "user-1", TenantID: "tenant-1"}, tenant: secretary()}

	r := gin.New()
	r.Use(Metrics(metrics, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/verify/:code", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/records", Tenant(sessions), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, perform(r, "Bearer token").Code)
	for _, path := range []string{"/health", "/verify/ABCDEF12", "/scan/1", "/scan/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	assert.Contains(t, body, `http_requests_total{academic_type="SECONDARY",method="GET",path="/records",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{academic_type="public",method="GET",path="/verify/:code",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{academic_type="public",method="GET",path="unmatched",status="404"} 2`)
	assert.NotContains(t, body, `path="/health"`)
	assert.NotContains(t, body, `/scan/`)
}
