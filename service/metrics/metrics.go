package metrics

import (
	"net/http"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redwatch"

var healthValues = []model.Health{model.HealthHealthy, model.HealthDegraded, model.HealthDown}

// Metrics owns its registry so several schedulers, as in tests, never collide.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	Cycles             prometheus.Counter
	CycleDuration      prometheus.Histogram
	CycleTimeouts      *prometheus.CounterVec
	Snapshots          *prometheus.CounterVec
	ClusterHealth      *prometheus.GaugeVec
	NodeReachable      *prometheus.GaugeVec
	NodeLatency        *prometheus.GaugeVec
	AgreementRatio     *prometheus.GaugeVec
	StoreWriteFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Number of completed poll cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall time of a poll cycle including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		CycleTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_timeouts_total",
			Help:      "Clusters whose pipeline missed the cycle deadline.",
		}, []string{"cluster"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshots produced, by cluster and health.",
		}, []string{"cluster", "health"}),
		ClusterHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_health",
			Help:      "1 for the current health of the cluster, 0 for the others.",
		}, []string{"cluster", "health"}),
		NodeReachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_reachable",
			Help:      "Whether the node answered the last probe.",
		}, []string{"cluster", "addr", "role"}),
		NodeLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_latency_milliseconds",
			Help:      "PING round trip of the last probe.",
		}, []string{"cluster", "addr"}),
		AgreementRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sentinel_agreement_ratio",
			Help:      "Share of responding sentinels agreeing on the master.",
		}, []string{"cluster"}),
		StoreWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_write_failures_total",
			Help:      "Snapshots that failed or timed out while being persisted.",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Cycles,
		m.CycleDuration,
		m.CycleTimeouts,
		m.Snapshots,
		m.ClusterHealth,
		m.NodeReachable,
		m.NodeLatency,
		m.AgreementRatio,
		m.StoreWriteFailures,
	)
	return m
}

func (m *Metrics) ObserveCycle(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSnapshot(snap *model.ClusterSnapshot) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(snap.Cluster, string(snap.Health)).Inc()
	for _, h := range healthValues {
		v := 0.0
		if h == snap.Health {
			v = 1
		}
		m.ClusterHealth.WithLabelValues(snap.Cluster, string(h)).Set(v)
	}
	for _, c := range snap.Causes {
		if c == model.CauseCycleTimeout {
			m.CycleTimeouts.WithLabelValues(snap.Cluster).Inc()
		}
	}
	if snap.Topology != nil {
		m.AgreementRatio.WithLabelValues(snap.Cluster).Set(snap.Topology.AgreementRatio)
	} else {
		m.AgreementRatio.WithLabelValues(snap.Cluster).Set(0)
	}
	for _, n := range snap.Nodes {
		v := 0.0
		if n.Reachable {
			v = 1
		}
		m.NodeReachable.WithLabelValues(snap.Cluster, n.Addr, string(n.Role)).Set(v)
		if n.LatencyMs != nil {
			m.NodeLatency.WithLabelValues(snap.Cluster, n.Addr).Set(*n.LatencyMs)
		}
	}
}

func (m *Metrics) StoreWriteFailed() {
	if m == nil {
		return
	}
	m.StoreWriteFailures.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
