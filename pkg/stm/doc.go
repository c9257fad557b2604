// Package stm is a software transactional memory engine.
//
// Shared state lives in memory cells owned by an STM registry. Callers only
// ever hold opaque handles (TVar) and mutate state by submitting
// transactions: ordered lists of steps that read and write through the
// transaction's private quarantine.
//
// Commit protocol:
//
//   - Execute: steps run against the quarantine. The first read of a cell
//     snapshots it into the read set; later reads in the same attempt are
//     served from that snapshot. Writes only touch the write set.
//   - Validate: under the registry-wide commit lock, every read-set snapshot
//     is compared with the live cell by value equality.
//   - Flush: still under the commit lock, the write set is copied into the
//     live cells, all or nothing.
//
// A failing step, a recovered panic or a validation mismatch rolls the
// attempt back and reruns every step from the start. Deleting a cell that a
// transaction has read or written is the only permanent failure: the
// transaction is aborted and its Future resolves to ErrAborted.
//
// Usage:
//
//	s := stm.New(stm.WithWorkers(8))
//	defer s.Close(context.Background())
//
//	src := stm.NewVar(s, values.NewInt(10))
//	dst := stm.NewVar(s, values.NewInt(0))
//
//	tx := stm.Begin(func(tx *stm.Transaction) error {
//		stm.Store(tx, src, values.NewInt(stm.Load(tx, src).V-5))
//		return nil
//	}).Then(func(tx *stm.Transaction) error {
//		stm.Store(tx, dst, values.NewInt(stm.Load(tx, dst).V+5))
//		return nil
//	}).Build()
//
//	f, _ := s.Submit(ctx, tx)
//	q, err := f.Wait(ctx)
//
// Retries are unbounded. Steps must be pure with respect to transactional
// state: any side effect outside Read/Write is repeated on every retry.
package stm
