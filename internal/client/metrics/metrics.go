// Package metrics holds the Prometheus collectors of the client. All methods
// are safe on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cookiecutter"

// Generation outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)

type Collector struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	storeWrites        *prometheus.CounterVec
	workItems          prometheus.Gauge
	liveHandles        prometheus.Gauge
}

// New creates a Collector on its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests by outcome.",
		}, []string{"outcome"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Round trip time of generation requests.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		storeWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Workspace persistence attempts by result.",
		}, []string{"result"}),
		workItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "work_items",
			Help:      "Work items in the workspace.",
		}),
		liveHandles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blob_handles",
			Help:      "Live artifact handles.",
		}),
	}
}

func (c *Collector) ObserveGeneration(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.generations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeDiscarded {
		c.generationDuration.Observe(d.Seconds())
	}
}

func (c *Collector) ObserveStoreWrite(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.storeWrites.WithLabelValues(result).Inc()
}

func (c *Collector) SetWorkItems(n int) {
	if c == nil {
		return
	}
	c.workItems.Set(float64(n))
}

func (c *Collector) SetHandles(n int) {
	if c == nil {
		return
	}
	c.liveHandles.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
