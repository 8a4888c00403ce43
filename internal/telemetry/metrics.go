// Package telemetry holds the Prometheus collectors exported on /metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snmphealth"

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Host polls by outcome and OS family",
		},
		[]string{"outcome", "os_family"},
	)

	PollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a single host poll",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"os_family"},
	)

	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Polling cycles by result (ok, partial, failed, skipped)",
		},
		[]string{"result"},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full polling cycle",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	HostsInLastCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts_last_cycle",
			Help:      "Number of hosts listed by the registry in the last cycle",
		},
	)

	StoreWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Snapshot upserts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(PollsTotal)
	prometheus.MustRegister(PollDuration)
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(CycleDuration)
	prometheus.MustRegister(HostsInLastCycle)
	prometheus.MustRegister(StoreWritesTotal)
}

func ObservePoll(family string, took time.Duration, err error) {
	if family == "" {
		family = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	PollsTotal.WithLabelValues(outcome, family).Inc()
	PollDuration.WithLabelValues(family).Observe(took.Seconds())
}

func ObserveCycle(result string, hosts int, took time.Duration) {
	CyclesTotal.WithLabelValues(result).Inc()
	if result == "skipped" {
		return
	}
	HostsInLastCycle.Set(float64(hosts))
	CycleDuration.Observe(took.Seconds())
}

func ObserveStoreWrite(err error) {
	if err != nil {
		StoreWritesTotal.WithLabelValues("error").Inc()
		return
	}
	StoreWritesTotal.WithLabelValues("ok").Inc()
}
