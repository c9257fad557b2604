// Package metric exposes STM engine activity as Prometheus metrics.
//
//   - prometheus.go: Registry, an stm.Observer that records commits,
//     retries, aborts and cancellations, plus the /metrics handler
//   - collector.go: EngineCollector, gauges sampled from STM.Stats at
//     scrape time
package metric
