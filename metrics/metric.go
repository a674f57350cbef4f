package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnb-chain/keys-hub/logging"
)

const (
	ResultUpdated = "updated"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	SyncedBlockGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synced_el_block",
		Help: "Execution layer block number the last sync cycle ran against.",
	})

	SyncLagGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_lag_blocks",
		Help: "Blocks between the execution layer head and the block the stored registry is known at.",
	})

	ModuleNonceGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "staking_module_nonce",
		Help: "Nonce of the staking module the stored operators and keys correspond to.",
	}, []string{"module"})

	ModuleSyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "staking_module_sync_duration_seconds",
		Help:    "Time spent synchronizing one staking module, by result.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 16),
	}, []string{"module", "result"})

	SyncErrorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_errors_total",
		Help: "Number of failed sync steps, by stage.",
	}, []string{"stage"})

	CacheLookupsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Number of local cache lookups, by cache and result.",
	}, []string{"cache", "result"})

	MetricsItems = []prometheus.Collector{
		SyncedBlockGauge,
		SyncLagGauge,
		ModuleNonceGauge,
		ModuleSyncDuration,
		SyncErrorsCounter,
		CacheLookupsCounter,
	}
)

const DefaultMetricsAddress = "0.0.0.0:9090"

type Metrics struct {
	httpAddress string
	registry    *prometheus.Registry
	httpServer  *http.Server
}

func NewMetrics(address string) *Metrics {
	if address == "" {
		address = DefaultMetricsAddress
	}
	return &Metrics{
		httpAddress: address,
		registry:    prometheus.NewRegistry(),
	}
}

func (m *Metrics) Start() {
	m.registry.MustRegister(MetricsItems...)
	go m.serve()
}

// Handler serves the registered collectors in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) serve() {
	router := mux.NewRouter()
	router.Path("/metrics").Handler(m.Handler())
	m.httpServer = &http.Server{
		Addr:    m.httpAddress,
		Handler: router,
	}
	if err := m.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Logger.Errorf("failed to listen and serve metrics, err=%s", err.Error())
		panic(err)
	}
}
