package stm

import (
	"context"
	"testing"
	"time"
)

// counter is a minimal Value used throughout the engine tests.
type counter struct {
	n int64
}

func newCounter(n int64) *counter { return &counter{n: n} }

func (c *counter) Copy() Value { return &counter{n: c.n} }

func (c *counter) Equal(other Value) bool {
	o, ok := other.(*counter)
	return ok && o != nil && o.n == c.n
}

// pair holds two numbers that tests keep equal to detect torn writes.
type pair struct {
	a, b int64
}

func (p *pair) Copy() Value { return &pair{a: p.a, b: p.b} }

func (p *pair) Equal(other Value) bool {
	o, ok := other.(*pair)
	return ok && o != nil && *o == *p
}

func newTestSTM(t *testing.T, opts ...Option) *STM {
	t.Helper()
	s := New(opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// increment adds delta to h.
func increment(h *TVar[*counter], delta int64) Step {
	return func(tx *Transaction) error {
		c := Load(tx, h)
		Store(tx, h, newCounter(c.n+delta))
		return nil
	}
}

func mustCommit(t *testing.T, s *STM, tx *Transaction) *Quarantine {
	t.Helper()
	ctx := testContext(t)
	f, err := s.Submit(ctx, tx)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	q, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return q
}
