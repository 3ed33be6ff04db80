// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package metrics exports control loop statistics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/bulb"
)

const namespace = "bulb"

var (
	framesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "frames_total"),
		"Frames whose GPU submission completed.",
		nil, nil,
	)
	failuresDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "frame_failures_total"),
		"Frames whose submission or completion failed.",
		nil, nil,
	)
	skippedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "ticks_skipped_total"),
		"Ticks dropped because the previous frame was still in flight.",
		nil, nil,
	)
	meanLatencyDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "frame", "latency_mean_seconds"),
		"Running mean of submission-to-completion latency.",
		nil, nil,
	)
	lastLatencyDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "frame", "latency_last_seconds"),
		"Latency of the most recent completed frame.",
		nil, nil,
	)
	pausedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "paused"),
		"1 while animation time is frozen.",
		nil, nil,
	)
)

// Collector reads a stats snapshot on every scrape.
type Collector struct {
	source func() bulb.StatsSnapshot
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reading from source, typically
// (*bulb.Controller).Stats.
func NewCollector(source func() bulb.StatsSnapshot) *Collector {
	return &Collector{source: source}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- framesDesc
	ch <- failuresDesc
	ch <- skippedDesc
	ch <- meanLatencyDesc
	ch <- lastLatencyDesc
	ch <- pausedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()

	paused := 0.0
	if s.Paused {
		paused = 1
	}

	ch <- prometheus.MustNewConstMetric(framesDesc, prometheus.CounterValue, float64(s.Frames))
	ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue, float64(s.Failures))
	ch <- prometheus.MustNewConstMetric(skippedDesc, prometheus.CounterValue, float64(s.Skipped))
	ch <- prometheus.MustNewConstMetric(meanLatencyDesc, prometheus.GaugeValue, s.MeanLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(lastLatencyDesc, prometheus.GaugeValue, s.LastLatency.Seconds())
	ch <- prometheus.MustNewConstMetric(pausedDesc, prometheus.GaugeValue, paused)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewRegistry returns a registry with c and the Go runtime collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
