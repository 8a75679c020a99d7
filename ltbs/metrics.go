package ltbs

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StoreMetrics is an optional set of Prometheus collectors tracking cache
// behavior (C4/C5/C6). A Store with nil metrics skips all observation calls
// — NewStoreMetrics is opt-in, never implicit, since a process may open many
// stores and registering per-instance collectors unconditionally would
// collide in the default registry.
//
// Grounded on pmtiles/server_metrics.go's createMetrics/register pattern
// (GaugeVec/CounterVec/HistogramVec registered once, observed via small
// helper methods).
type StoreMetrics struct {
	residentTiles prometheus.Gauge
	residentBytes prometheus.Gauge
	evictions     prometheus.Counter
	tileLoads     *prometheus.CounterVec // label "source": "disk" or "init"
	loadDuration  prometheus.Histogram
}

func register[K prometheus.Collector](logger *zap.Logger, metric K) K {
	if err := prometheus.Register(metric); err != nil {
		logger.Warn("metric registration failed", zap.Error(err))
	}
	return metric
}

// NewStoreMetrics creates and registers a StoreMetrics scoped by name (used
// as the Prometheus subsystem label, so two stores in one process don't
// collide). Pass a nil *zap.Logger to use zap.NewNop().
func NewStoreMetrics(scope string, logger *zap.Logger) *StoreMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	durationBuckets := prometheus.DefBuckets

	return &StoreMetrics{
		residentTiles: register(logger, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ltbs",
			Subsystem: scope,
			Name:      "resident_tiles",
			Help:      "Number of tiles currently resident in memory",
		})),
		residentBytes: register(logger, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ltbs",
			Subsystem: scope,
			Name:      "resident_bytes",
			Help:      "Current resident tile bytes",
		})),
		evictions: register(logger, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ltbs",
			Subsystem: scope,
			Name:      "evictions_total",
			Help:      "Tiles evicted from the cache",
		})),
		tileLoads: register(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ltbs",
			Subsystem: scope,
			Name:      "tile_loads_total",
			Help:      "Tiles loaded into the cache, by source",
		}, []string{"source"})),
		loadDuration: register(logger, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ltbs",
			Subsystem: scope,
			Name:      "tile_load_duration_seconds",
			Help:      "Duration of a single tile load (allocate + optional disk read)",
			Buckets:   durationBuckets,
		})),
	}
}

func (m *StoreMetrics) observeResidentBytes(n int64) {
	m.residentBytes.Set(float64(n))
}

func (m *StoreMetrics) observeResidentTiles(n int) {
	m.residentTiles.Set(float64(n))
}

func (m *StoreMetrics) observeEviction() {
	m.evictions.Inc()
}

func (m *StoreMetrics) observeLoad(source string, seconds float64) {
	m.tileLoads.WithLabelValues(source).Inc()
	m.loadDuration.Observe(seconds)
}
