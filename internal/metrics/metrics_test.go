package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPurchase("ip_check")
		m.RecordTopUp(10)
		m.RecordWebhookReplay()
		m.RecordOutbox(true)
		m.ObserveLockWait(0.1)
	})
}

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPurchase("ip_check")
	m.RecordPurchase("ip_check")
	m.RecordTopUp(50)
	m.RecordWebhookReplay()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PurchasesTotal.WithLabelValues("ip_check")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TopUpsCredited))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.TopUpAmountTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookReplays))
}

func TestMetrics_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/transactions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions/7", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/transactions/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}
