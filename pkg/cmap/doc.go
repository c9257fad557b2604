// Package cmap provides a concurrent map sharded by key hash.
//
// The STM registry keeps its live-cell set here:
//
//   - Sharding: power-of-two shard count, murmur3 over the key bytes
//   - Fine-grained Locking: per-shard RWMutex
//   - Atomic membership: SetIfAbsent and Pop are single-shard critical sections
//   - Iteration: Range holds one shard read lock at a time
//
// Usage:
//
//	m := cmap.New[stm.CellID, *cell]()
//	m.SetIfAbsent(id, c)
//	c, ok := m.Get(id)
//
// The view observed by Range and Count is not a point-in-time snapshot
// across shards.
package cmap
