// Package main provides the entry point for stmctl.
//
// stmctl drives the STM engine with demonstration workloads and serves its
// state over HTTP during long runs:
//
//   - bank: concurrent random transfers with a conservation check
//   - array: ordered or concurrent T1/T2 mutators on a shared array
//   - soak: bank transfers until interrupted, with /metrics, /health,
//     /v1/stats and /v1/cells
//   - config: show or validate configuration
//   - version: build information
//
// Usage:
//
//	stmctl bank --accounts 10 --transfers 10000
//	stmctl -o json array --order T2,T1,T2,T2
//	stmctl -c stm.yaml soak --duration 10m
package main
