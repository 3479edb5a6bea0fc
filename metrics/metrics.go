// Package metrics exposes generation outcomes to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai_comment_assistant/generator"
)

// Recorder implements generator.Observer and counts extraction results.
type Recorder struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	extractions *prometheus.CounterVec
}

var _ generator.Observer = (*Recorder)(nil)

// New registers the collectors on a private registry, plus the Go and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commenter_generations_total",
				Help: "Comment generation requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commenter_generation_duration_seconds",
				Help:    "Duration of comment generation including the provider call",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"provider"},
		),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commenter_extractions_total",
				Help: "Post text extractions by result",
			},
			[]string{"result"},
		),
	}
	r.registry.MustRegister(
		r.generations,
		r.duration,
		r.extractions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveGeneration(provider generator.Provider, outcome string, elapsed time.Duration) {
	r.generations.WithLabelValues(string(provider), outcome).Inc()
	r.duration.WithLabelValues(string(provider)).Observe(elapsed.Seconds())
}

// ObserveExtraction counts found / empty extraction results.
func (r *Recorder) ObserveExtraction(found bool) {
	result := "empty"
	if found {
		result = "found"
	}
	r.extractions.WithLabelValues(result).Inc()
}

// Registry is exposed for tests and additional collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
