package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"dua/internal/platform/metrics"
)

func TestLatencyMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.NewWith(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/ledger/accounts/{account}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ledger/accounts/0xabc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ledger/accounts/0xdef", nil))

	got := testutil.ToFloat64(m.Requests.WithLabelValues("/ledger/accounts/{account}", "GET", "202"))
	assert.InDelta(t, 2, got, 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.InFlight), 0)
}

func TestLatencyMiddlewareNilMetrics(t *testing.T) {
	h := LatencyMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
