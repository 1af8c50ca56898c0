// Package metrics holds the prometheus collectors describing registry builds. Builds are short
// lived batch runs so the collectors live in their own registry which can be pushed to a
// Pushgateway once a run finishes.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "registry_builder"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Config struct {
	PushgatewayURL string `mapstructure:"pushgateway-url"`
	Job            string `mapstructure:"job"`
}

type Collector struct {
	Registry       *prometheus.Registry
	runs           *prometheus.CounterVec
	appsDiscovered prometheus.Gauge
	fetchDuration  prometheus.Histogram
	runDuration    prometheus.Histogram
	lastSuccess    prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Registry builds by result.",
		}, []string{"result"}),
		appsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps_discovered",
			Help:      "Applications discovered by the most recent build.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "manifest_fetch_duration_seconds",
			Help:      "Time taken to read a single application manifest.",
			Buckets:   prometheus.DefBuckets,
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time taken by a complete registry build.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
	}
	c.Registry.MustRegister(c.runs, c.appsDiscovered, c.fetchDuration, c.runDuration, c.lastSuccess)
	return c
}

func (c *Collector) SetAppsDiscovered(n int) {
	c.appsDiscovered.Set(float64(n))
}

func (c *Collector) ObserveFetch(d time.Duration) {
	c.fetchDuration.Observe(d.Seconds())
}

// ObserveRun records the outcome of a build. Only successful builds move the last success
// timestamp.
func (c *Collector) ObserveRun(d time.Duration, err error) {
	c.runDuration.Observe(d.Seconds())
	if err != nil {
		c.runs.WithLabelValues(ResultFailure).Inc()
		return
	}
	c.runs.WithLabelValues(ResultSuccess).Inc()
	c.lastSuccess.SetToCurrentTime()
}

// Push replaces the metrics grouped under cfg.Job on the configured Pushgateway. It is a no-op
// when no Pushgateway is configured.
func (c *Collector) Push(ctx context.Context, cfg Config) error {
	if cfg.PushgatewayURL == "" {
		return nil
	}
	if err := push.New(cfg.PushgatewayURL, cfg.Job).Gatherer(c.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("unable to push metrics to %s: %w", cfg.PushgatewayURL, err)
	}
	return nil
}
