// Package workload holds demonstration workloads that drive the STM engine.
//
// Subpackages:
//   - bank: accounts with withdraw, deposit and transfer transactions
//   - tarray: a shared integer array mutated by commuting transactions
package workload
