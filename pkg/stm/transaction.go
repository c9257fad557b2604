package stm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// State is the position of a transaction in its execution state machine.
//
//	Pending -> Running -> {Retrying -> Running}* -> Committed | Aborted | Cancelled
type State int32

const (
	// StatePending is a built transaction that has not been submitted.
	StatePending State = iota
	// StateRunning executes steps or commits.
	StateRunning
	// StateRetrying has rolled back a failed attempt and waits to rerun.
	StateRetrying
	// StateCommitted flushed its write set.
	StateCommitted
	// StateAborted referenced a deleted cell and will never commit.
	StateAborted
	// StateCancelled stopped between attempts because its context ended
	// or the STM was closed.
	StateCancelled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateRetrying:
		return "retrying"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether s ends a submission.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted || s == StateCancelled
}

// Transaction is a retryable, ordered list of steps.
//
// Read and Write are meant to be called from the transaction's own steps,
// which always run on a single worker goroutine. The accessors (State,
// Version, IsComplete, ...) are safe to call from any goroutine.
type Transaction struct {
	id    string
	label string
	steps []Step

	// Quarantine, owned by the worker running the transaction.
	reads  logSet
	writes logSet

	state    atomic.Int32
	version  atomic.Uint64
	attempts atomic.Int64
	complete atomic.Bool
	aborted  atomic.Bool
	running  atomic.Bool
}

func newTransaction(label string, steps []Step) *Transaction {
	return &Transaction{
		id:     "tx-" + strings.ToLower(ulid.Make().String()),
		label:  label,
		steps:  steps,
		reads:  make(logSet),
		writes: make(logSet),
	}
}

// ID returns the transaction identifier, tx-{ulid_lowercase}.
func (tx *Transaction) ID() string { return tx.id }

// Label returns the name given with Builder.Named.
func (tx *Transaction) Label() string { return tx.label }

// State returns the current state.
func (tx *Transaction) State() State { return State(tx.state.Load()) }

// Version returns the number of successful commits across submissions.
func (tx *Transaction) Version() uint64 { return tx.version.Load() }

// Attempts returns the number of attempts made by the latest submission.
func (tx *Transaction) Attempts() int { return int(tx.attempts.Load()) }

// IsComplete reports whether the latest submission committed or aborted.
func (tx *Transaction) IsComplete() bool { return tx.complete.Load() }

// Aborted reports whether the latest submission aborted permanently.
func (tx *Transaction) Aborted() bool { return tx.aborted.Load() }

func (tx *Transaction) setState(s State) { tx.state.Store(int32(s)) }

// Read returns a copy of the value of h as seen by this attempt.
//
// The first read of a cell snapshots it into the read set; every later read
// in the same attempt returns a copy of that snapshot. Pending writes of
// this transaction are not visible to Read. A nil handle reads as nil.
func (tx *Transaction) Read(h Handle) Value {
	c := cellOf(h)
	if c == nil {
		return nil
	}
	if e, ok := tx.reads[c.id]; ok {
		return copyValue(e.value)
	}
	snapshot := c.read()
	tx.reads[c.id] = entry{cell: c, value: snapshot}
	return copyValue(snapshot)
}

// Write records v as the pending value of h. The live cell is untouched
// until commit. Writing a nil value or to a nil handle is a no-op that
// returns false.
func (tx *Transaction) Write(h Handle, v Value) bool {
	c := cellOf(h)
	if c == nil || isNil(v) {
		return false
	}
	tx.writes[c.id] = entry{cell: c, value: v.Copy()}
	return true
}

// Load is the typed form of Transaction.Read. It returns the zero V if the
// cell is nil or holds a value of another type.
func Load[V Value](tx *Transaction, h *TVar[V]) V {
	v, _ := tx.Read(h).(V)
	return v
}

// Store is the typed form of Transaction.Write.
func Store[V Value](tx *Transaction, h *TVar[V], v V) bool {
	return tx.Write(h, v)
}

// run drives one submission to a terminal state.
func (tx *Transaction) run(ctx context.Context, s *STM) (*Quarantine, error) {
	started := time.Now()
	tx.complete.Store(false)
	tx.aborted.Store(false)
	tx.attempts.Store(0)
	tx.rollback()

	policy := s.opts.retryPolicy()
	policy.Reset()

	for {
		tx.setState(StateRunning)
		attempt := int(tx.attempts.Add(1))

		err := tx.execute()
		if err == nil {
			err = tx.commit(s)
			if err == nil {
				return tx.committed(s, started), nil
			}
		} else if lerr := tx.liveness(s); lerr != nil {
			err = lerr
		}
		if tx.aborted.Load() {
			return nil, tx.abort(s, started, err)
		}

		tx.rollback()
		tx.setState(StateRetrying)
		s.noteRetry(tx, attempt, err)

		if werr := s.pause(ctx, policy); werr != nil {
			return nil, tx.cancel(s, started, werr)
		}
	}
}

func (tx *Transaction) execute() error {
	for i, step := range tx.steps {
		if err := tx.runStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Transaction) runStep(i int, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrStepPanicked.WithDetails(fmt.Sprintf("step %d: %v", i, r))
		}
	}()
	if serr := step(tx); serr != nil {
		return ErrStepFailed.WithDetails(fmt.Sprintf("step %d", i)).WithCause(serr)
	}
	return nil
}

// commit validates the read set and flushes the write set while holding the
// registry commit lock. Liveness of every referenced cell is checked before
// any value comparison or write, so a deleted cell always aborts and a
// flush is never partial.
func (tx *Transaction) commit(s *STM) error {
	s.lockCommit()
	defer s.unlockCommit()

	if err := tx.checkLive(s); err != nil {
		return err
	}

	for id, e := range tx.reads {
		if !e.cell.matches(e.value) {
			return ErrConflict.WithDetails(id.String())
		}
	}

	for _, e := range tx.writes {
		e.cell.write(e.value)
	}
	return nil
}

// liveness runs checkLive under the commit lock. It is used after a failed
// attempt so a deleted cell aborts even when commit is never reached.
func (tx *Transaction) liveness(s *STM) error {
	s.lockCommit()
	defer s.unlockCommit()
	return tx.checkLive(s)
}

// checkLive marks the transaction aborted if any cell it read or wrote is
// no longer registered. The caller holds the commit lock.
func (tx *Transaction) checkLive(s *STM) error {
	for id, e := range tx.reads {
		if !s.isLive(e.cell) {
			tx.aborted.Store(true)
			return ErrCellDeleted.WithDetails(id.String())
		}
	}
	for id, e := range tx.writes {
		if !s.isLive(e.cell) {
			tx.aborted.Store(true)
			return ErrCellDeleted.WithDetails(id.String())
		}
	}
	return nil
}

func (tx *Transaction) rollback() {
	clear(tx.reads)
	clear(tx.writes)
}

func (tx *Transaction) committed(s *STM, started time.Time) *Quarantine {
	q := newQuarantine(tx.reads, tx.writes)
	writes := len(tx.writes)
	tx.rollback()
	tx.version.Add(1)
	tx.complete.Store(true)
	tx.setState(StateCommitted)
	s.noteCommit(tx, writes, time.Since(started))
	return q
}

func (tx *Transaction) abort(s *STM, started time.Time, cause error) error {
	tx.rollback()
	tx.complete.Store(true)
	tx.setState(StateAborted)
	s.noteAbort(tx, cause, time.Since(started))
	return ErrAborted.WithCause(cause)
}

func (tx *Transaction) cancel(s *STM, started time.Time, cause error) error {
	tx.rollback()
	tx.setState(StateCancelled)
	s.noteCancel(tx, cause, time.Since(started))
	return ErrCancelled.WithCause(cause)
}

// retryReason classifies a failed attempt for observers.
func retryReason(err error) Reason {
	switch {
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrStepPanicked):
		return ReasonPanic
	default:
		return ReasonStepFailed
	}
}
