package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

func TestObserveMutation(t *testing.T) {
	m := New("test")

	m.ObserveMutation("wishlist", optimistic.StatusConfirmed, "")
	m.ObserveMutation("wishlist", optimistic.StatusRolledBack, optimistic.KindNetworkFailure)
	m.ObserveMutation("wishlist", optimistic.StatusRolledBack, optimistic.KindNetworkFailure)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("wishlist", "confirmed", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("wishlist", "rolled_back", "network_failure")))
}

func TestCartCounters(t *testing.T) {
	m := New("test")

	m.ObserveCartWrite("redis", nil)
	m.ObserveCartWrite("redis", errors.New("down"))
	m.ObserveCartHydration("redis", nil)
	m.SetActiveSessions(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartWritesTotal.WithLabelValues("redis", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartWritesTotal.WithLabelValues("redis", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartHydrations.WithLabelValues("redis", "ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeSessions))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("test")
	m.ObserveRequest(http.MethodGet, "/api/v1/cart", http.StatusOK, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/cart",status="200"} 1`)
}
