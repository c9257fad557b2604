package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/stm-go/pkg/stm"
)

// StatsSource is satisfied by *stm.STM.
type StatsSource interface {
	Stats() stm.Stats
}

// EngineCollector samples engine gauges at scrape time.
type EngineCollector struct {
	src StatsSource

	cells    *prometheus.Desc
	workers  *prometheus.Desc
	queued   *prometheus.Desc
	inFlight *prometheus.Desc
}

// NewEngineCollector creates a collector reading from src.
func NewEngineCollector(src StatsSource) *EngineCollector {
	return &EngineCollector{
		src: src,
		cells: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cells", "live"),
			"Live memory cells.", nil, nil),
		workers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "workers"),
			"Worker goroutines.", nil, nil),
		queued: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "queued"),
			"Submitted transactions waiting for a worker.", nil, nil),
		inFlight: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "in_flight"),
			"Transactions currently running on a worker.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cells
	ch <- c.workers
	ch <- c.queued
	ch <- c.inFlight
}

// Collect implements prometheus.Collector.
func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.cells, prometheus.GaugeValue, float64(s.Cells))
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(s.InFlight))
}
