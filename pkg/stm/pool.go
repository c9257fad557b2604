package stm

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type job struct {
	ctx    context.Context
	tx     *Transaction
	future *Future
}

// Submit queues tx for execution and returns its Future.
//
// Submit blocks while the queue is full (and, when configured, while the
// submission throttle has no tokens) until ctx is done. ctx also governs
// the retry loop: once it ends, the transaction stops before its next
// attempt and resolves with ErrCancelled.
//
// A transaction can be submitted again after its previous submission has
// resolved. Submitting it while it is still running returns
// ErrTransactionBusy.
func (s *STM) Submit(ctx context.Context, tx *Transaction) (*Future, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	if s.isClosed() {
		return nil, ErrClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if !tx.running.CompareAndSwap(false, true) {
		return nil, ErrTransactionBusy.WithDetails(tx.id)
	}

	f := newFuture(tx)
	tx.setState(StatePending)
	if err := s.enqueue(ctx, &job{ctx: ctx, tx: tx, future: f}); err != nil {
		tx.running.Store(false)
		return nil, err
	}
	s.submitted.Add(1)
	return f, nil
}

func (s *STM) enqueue(ctx context.Context, j *job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.jobs <- j:
		return nil
	case <-s.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec submits every transaction and waits for all of them. The returned
// slice is index-aligned with txs; entries for transactions that did not
// commit are nil. The error joins every non-commit outcome.
func (s *STM) Exec(ctx context.Context, txs ...*Transaction) ([]*Quarantine, error) {
	futures := make([]*Future, len(txs))
	errs := make([]error, 0)
	for i, tx := range txs {
		f, err := s.Submit(ctx, tx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		futures[i] = f
	}

	results := make([]*Quarantine, len(txs))
	for i, f := range futures {
		if f == nil {
			continue
		}
		q, err := f.Wait(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[i] = q
	}
	return results, errors.Join(errs...)
}

// Fork runs Exec in the background. The channel receives Exec's error
// (nil when every transaction committed) and is then closed.
func (s *STM) Fork(ctx context.Context, txs ...*Transaction) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		_, err := s.Exec(ctx, txs...)
		out <- err
	}()
	return out
}

// Close stops accepting submissions and waits for the workers to exit or
// for ctx to end. Running transactions finish their current attempt and
// are cancelled before the next one. Queued ones resolve with ErrClosed.
func (s *STM) Close(ctx context.Context) error {
	// Unblock submitters waiting on a full queue before taking the lock.
	s.closeOnce.Do(func() { close(s.closing) })

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Debug("stm closed", "commits", s.commits.Load(), "retries", s.retries.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *STM) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *STM) worker() {
	defer s.wg.Done()
	for j := range s.jobs {
		s.runJob(j)
	}
}

func (s *STM) runJob(j *job) {
	select {
	case <-s.closing:
		j.tx.setState(StateCancelled)
		j.tx.running.Store(false)
		s.cancels.Add(1)
		j.future.resolve(nil, ErrClosed)
		return
	default:
	}

	s.inFlight.Add(1)
	q, err := j.tx.run(j.ctx, s)
	s.inFlight.Add(-1)

	j.tx.running.Store(false)
	j.future.resolve(q, err)
}

// pause waits out the retry policy between two attempts. It returns an
// error when the submission context ends or the STM is closing.
func (s *STM) pause(ctx context.Context, policy backoff.BackOff) error {
	d := policy.NextBackOff()
	if d < 0 {
		d = 0
	}

	if d == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closing:
			return ErrClosed
		default:
			runtime.Gosched()
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closing:
		return ErrClosed
	case <-timer.C:
		return nil
	}
}
