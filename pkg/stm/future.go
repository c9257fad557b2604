package stm

import "context"

// Future is the pending outcome of one submission.
type Future struct {
	tx   *Transaction
	done chan struct{}
	q    *Quarantine
	err  error
}

func newFuture(tx *Transaction) *Future {
	return &Future{tx: tx, done: make(chan struct{})}
}

func (f *Future) resolve(q *Quarantine, err error) {
	f.q = q
	f.err = err
	close(f.done)
}

// Done is closed once the submission reaches a terminal state.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Transaction returns the submitted transaction.
func (f *Future) Transaction() *Transaction {
	return f.tx
}

// Wait blocks until the submission finishes or ctx is done.
//
// A committed transaction yields its Quarantine snapshot and a nil error.
// An aborted one yields a nil snapshot and an error matching ErrAborted.
// Giving up on ctx does not stop the transaction; cancel the submission
// context for that.
func (f *Future) Wait(ctx context.Context) (*Quarantine, error) {
	select {
	case <-f.done:
		return f.q, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
