// Package metrics counts pipeline outcomes and pushes them to a Prometheus
// Pushgateway at the end of a command. The process is short-lived, so there
// is no scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"shorts-pipeline/internal/types"
)

// Recorder holds the counters for one command invocation
type Recorder struct {
	registry *prometheus.Registry

	produced       *prometheus.CounterVec
	publishResults *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	lastRun        prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shorts",
			Name:      "produce_cycles_total",
			Help:      "Production cycles by outcome.",
		}, []string{"outcome"}),
		publishResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shorts",
			Name:      "publish_results_total",
			Help:      "Publish attempts by status and error kind.",
		}, []string{"status", "kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shorts",
			Name:      "queue_pending",
			Help:      "Artifacts waiting in the queue.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shorts",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last command finished.",
		}),
	}
	r.registry.MustRegister(r.produced, r.publishResults, r.queueDepth, r.lastRun)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ProduceFinished counts one production cycle
func (r *Recorder) ProduceFinished(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.produced.WithLabelValues(outcome).Inc()
}

// Observe implements the orchestrator's result observer
func (r *Recorder) Observe(_ context.Context, res types.PublishResult) error {
	r.publishResults.WithLabelValues(res.Status, string(res.Kind)).Inc()
	return nil
}

func (r *Recorder) SetQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}

// Push sends the registry to the gateway. An empty url is a no-op.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	r.lastRun.Set(float64(time.Now().Unix()))
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
