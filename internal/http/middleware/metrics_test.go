package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersInflightAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1/messages/conversation/:userId", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	const route = "/api/v1/messages/conversation/:userId"
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", route, "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))

	for _, path := range []string{
		"/api/v1/messages/conversation/u1",
		"/api/v1/messages/conversation/u2",
		"/does-not-exist",
		"/statusonly",
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", route, "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v (ids must not become labels)", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404")); got != base404+1 {
		t.Fatalf("counter 404 fallback = %v; want %v", got, base404+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestMetrics_SkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/ws"))
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	base := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ws", "401"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ws", "401")); got != base {
		t.Fatalf("skipped path was counted: %v -> %v", base, got)
	}
}
