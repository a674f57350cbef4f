package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("")
	assert.Equal(t, DefaultMetricsAddress, m.httpAddress)
	m.registry.MustRegister(MetricsItems...)

	SyncedBlockGauge.Set(120)
	ModuleNonceGauge.WithLabelValues("0x55032650b14df07b85bf18a3a3ec8e0af2e028d5").Set(3)
	SyncErrorsCounter.WithLabelValues("discovery").Inc()

	assert.Equal(t, float64(120), testutil.ToFloat64(SyncedBlockGauge))
	assert.Equal(t, float64(1), testutil.ToFloat64(SyncErrorsCounter.WithLabelValues("discovery")))

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "synced_el_block 120")
	assert.Contains(t, recorder.Body.String(), "staking_module_nonce")
}

func TestMetricsItemsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(SyncedBlockGauge))
	require.Error(t, registry.Register(SyncedBlockGauge))
}
