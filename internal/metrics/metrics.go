// Package metrics wraps the search engine's instrumentation behind a small
// Collector interface, with a real Prometheus-backed implementation and a
// NoOp implementation that satisfies the same interface at zero cost.
//
// This "open core" split is exactly the teacher's own idiom: risk-agent
// carries a MetricsCollector/NoMetricsCollector pair in
// searcher/metrics.go and experiments/metrics/collector.go; here it's
// generalized from Risk's win-rate-only bookkeeping to a namespace of
// search-engine gauges/counters, named and structured the way
// AleutianLocal's cmd/aleutian/internal/diagnostics/metrics.go organizes
// its own namespace/subsystem Prometheus metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "mctscore"

// Collector is every measurement the search core reports. Implementations
// must be safe for concurrent use: workers call these from multiple
// goroutines without any additional synchronization.
type Collector interface {
	// IncSearchesStarted counts a new Controller.Start call.
	IncSearchesStarted()
	// ObserveNodesPerSecond records the instantaneous NPS sampled by
	// UpdateCounters.
	ObserveNodesPerSecond(nps float64)
	// SetCacheHitRatio records the fraction of AddInput calls served from
	// the NN cache rather than inference, in [0,1].
	SetCacheHitRatio(ratio float64)
	// IncCollisions counts one TryStartScoreUpdate collision.
	IncCollisions()
	// ObserveBatchSize records one minibatch's size after GatherMinibatch.
	ObserveBatchSize(size int)
	// SetActiveSearches records how many Controllers are currently
	// running concurrently.
	SetActiveSearches(n int)
}

// NoOp returns a Collector whose methods do nothing, for callers that don't
// want a Prometheus registry wired in (tests, one-off CLI runs).
func NoOp() Collector { return noOpCollector{} }

type noOpCollector struct{}

func (noOpCollector) IncSearchesStarted()          {}
func (noOpCollector) ObserveNodesPerSecond(float64) {}
func (noOpCollector) SetCacheHitRatio(float64)      {}
func (noOpCollector) IncCollisions()                {}
func (noOpCollector) ObserveBatchSize(int)          {}
func (noOpCollector) SetActiveSearches(int)         {}

// Prometheus is the real Collector, registering its metrics under the
// "mctscore_search_*" name prefix, except the cache hit ratio, which is
// "mctscore_nn_cache_hit_ratio".
type Prometheus struct {
	searchesStarted prometheus.Counter
	nodesPerSecond  prometheus.Gauge
	cacheHitRatio   prometheus.Gauge
	collisions      prometheus.Counter
	batchSize       prometheus.Histogram
	activeSearches  prometheus.Gauge
}

// NewPrometheus creates and registers a Collector against reg. Passing
// prometheus.NewRegistry() (rather than the global DefaultRegisterer)
// keeps tests hermetic.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		searchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search", Name: "started_total",
			Help: "Total number of searches started.",
		}),
		nodesPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "search", Name: "nodes_per_second",
			Help: "Most recently sampled search throughput.",
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "nn_cache", Name: "hit_ratio",
			Help: "Fraction of NN evaluation requests served from cache.",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search", Name: "collisions_total",
			Help: "Total TryStartScoreUpdate collisions across all searches.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search", Name: "minibatch_size",
			Help:    "Distribution of minibatch sizes gathered per iteration.",
			Buckets: prometheus.LinearBuckets(0, 4, 16),
		}),
		activeSearches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "search", Name: "active",
			Help: "Number of searches currently running.",
		}),
	}
	reg.MustRegister(p.searchesStarted, p.nodesPerSecond, p.cacheHitRatio,
		p.collisions, p.batchSize, p.activeSearches)
	return p
}

func (p *Prometheus) IncSearchesStarted()            { p.searchesStarted.Inc() }
func (p *Prometheus) ObserveNodesPerSecond(nps float64) { p.nodesPerSecond.Set(nps) }
func (p *Prometheus) SetCacheHitRatio(ratio float64)    { p.cacheHitRatio.Set(ratio) }
func (p *Prometheus) IncCollisions()                    { p.collisions.Inc() }
func (p *Prometheus) ObserveBatchSize(size int)         { p.batchSize.Observe(float64(size)) }
func (p *Prometheus) SetActiveSearches(n int)           { p.activeSearches.Set(float64(n)) }

var _ Collector = (*Prometheus)(nil)
var _ Collector = noOpCollector{}
