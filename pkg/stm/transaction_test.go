package stm

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StatePending, "pending", false},
		{StateRunning, "running", false},
		{StateRetrying, "retrying", false},
		{StateCommitted, "committed", true},
		{StateAborted, "aborted", true},
		{StateCancelled, "cancelled", true},
		{State(42), "state(42)", false},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	noop := func(*Transaction) error { return nil }

	b := NewTransaction().Named("transfer").Step(noop).Step(nil).Then(noop)
	tx1 := b.Build()
	tx2 := b.Step(noop).Build()

	if len(tx1.steps) != 2 {
		t.Errorf("len(tx1.steps) = %d, want 2", len(tx1.steps))
	}
	if len(tx2.steps) != 3 {
		t.Errorf("len(tx2.steps) = %d, want 3", len(tx2.steps))
	}
	if tx1.Label() != "transfer" {
		t.Errorf("Label() = %q, want transfer", tx1.Label())
	}
	if tx1.ID() == tx2.ID() {
		t.Error("two builds share an ID")
	}
	if tx1.State() != StatePending {
		t.Errorf("State() = %v, want pending", tx1.State())
	}

	if got := len(Begin(noop).Then(noop).Build().steps); got != 2 {
		t.Errorf("Begin().Then() steps = %d, want 2", got)
	}
}

func TestTransaction_ReadConsistency(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(1))

	var first, second []int64
	tx := Begin(func(tx *Transaction) error {
		a := Load(tx, x).n
		if len(first) == 0 {
			// A concurrent commit lands between the two reads.
			x.c.write(newCounter(50))
		}
		b := Load(tx, x).n
		first = append(first, a)
		second = append(second, b)
		Store(tx, x, newCounter(b+1))
		return nil
	}).Build()

	mustCommit(t, s, tx)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("attempt %d: reads %d then %d, want identical", i+1, first[i], second[i])
		}
	}
	if tx.Attempts() != 2 {
		t.Errorf("Attempts() = %d, want 2", tx.Attempts())
	}
	if v, _ := View(s, x); v.n != 51 {
		t.Errorf("x = %d, want 51", v.n)
	}
}

func TestTransaction_ReadsDoNotSeeOwnWrites(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(1))

	var seen int64
	tx := Begin(func(tx *Transaction) error {
		Store(tx, x, newCounter(9))
		seen = Load(tx, x).n
		return nil
	}).Build()

	q := mustCommit(t, s, tx)

	if seen != 1 {
		t.Errorf("read after write = %d, want snapshot 1", seen)
	}
	if v, _ := Lookup(q, x); v.n != 9 {
		t.Errorf("snapshot x = %d, want 9", v.n)
	}
}

func TestTransaction_ReadReturnsCopies(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(3))

	tx := Begin(func(tx *Transaction) error {
		v := Load(tx, x)
		v.n = 1000
		if again := Load(tx, x); again.n != 3 {
			return errors.New("snapshot aliased by a read result")
		}
		return nil
	}).Build()

	mustCommit(t, s, tx)
	if tx.Attempts() != 1 {
		t.Errorf("Attempts() = %d, want 1", tx.Attempts())
	}
}

func TestTransaction_NilHandleAndValue(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(3))

	var (
		readNil   Value
		wroteNil  bool
		wroteNilV bool
	)
	tx := Begin(func(tx *Transaction) error {
		var h *TVar[*counter]
		readNil = tx.Read(h)
		wroteNil = tx.Write(nil, newCounter(1))
		var v *counter
		wroteNilV = tx.Write(x, v)
		return nil
	}).Build()

	mustCommit(t, s, tx)

	if readNil != nil {
		t.Errorf("Read(nil) = %v, want nil", readNil)
	}
	if wroteNil {
		t.Error("Write(nil handle) = true, want false")
	}
	if wroteNilV {
		t.Error("Write(nil value) = true, want false")
	}
	if v, _ := View(s, x); v.n != 3 {
		t.Errorf("x = %d, want 3", v.n)
	}
}

func TestTransaction_WriteCopiesValue(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(0))

	tx := Begin(func(tx *Transaction) error {
		v := newCounter(5)
		Store(tx, x, v)
		v.n = 6
		return nil
	}).Build()

	mustCommit(t, s, tx)
	if v, _ := View(s, x); v.n != 5 {
		t.Errorf("x = %d, want 5", v.n)
	}
}

func TestTransaction_StepErrorRetries(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(0))

	var calls atomic.Int32
	tx := Begin(func(tx *Transaction) error {
		Store(tx, x, newCounter(Load(tx, x).n+1))
		if calls.Add(1) < 3 {
			return errors.New("not yet")
		}
		return nil
	}).Build()

	mustCommit(t, s, tx)

	if tx.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", tx.Attempts())
	}
	if v, _ := View(s, x); v.n != 1 {
		t.Errorf("x = %d, want 1 (failed attempts must not leak writes)", v.n)
	}
}

func TestTransaction_ReplayYieldsSameWriteSet(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(7))
	y := NewVar(s, newCounter(0))

	var attempts atomic.Int32
	var seen []int64
	tx := Begin(func(tx *Transaction) error {
		Store(tx, y, newCounter(Load(tx, x).n*2))
		return nil
	}).Then(func(tx *Transaction) error {
		seen = append(seen, Load(tx, x).n)
		if attempts.Add(1) == 1 {
			return errors.New("replay me")
		}
		return nil
	}).Build()

	q := mustCommit(t, s, tx)

	if len(seen) != 2 || seen[0] != seen[1] {
		t.Errorf("reads across attempts = %v, want two equal values", seen)
	}
	if got, ok := Lookup(q, y); !ok || got.n != 14 {
		t.Errorf("Lookup(y) = %v, %v, want 14", got, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestTransaction_StepErrorSkipsRemainingSteps(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))

	var failed atomic.Bool
	var laterRuns atomic.Int32
	tx := NewTransaction().
		Step(func(*Transaction) error {
			if failed.CompareAndSwap(false, true) {
				return errors.New("first attempt fails")
			}
			return nil
		}).
		Step(func(*Transaction) error {
			laterRuns.Add(1)
			return nil
		}).
		Build()

	mustCommit(t, s, tx)
	if laterRuns.Load() != 1 {
		t.Errorf("second step ran %d times, want 1", laterRuns.Load())
	}
}

func TestTransaction_PanicIsRetried(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(10))

	var panicked atomic.Bool
	tx := NewTransaction().
		Step(increment(x, 1)).
		Step(func(*Transaction) error {
			if panicked.CompareAndSwap(false, true) {
				panic("boom")
			}
			return nil
		}).
		Build()

	mustCommit(t, s, tx)

	if tx.Attempts() != 2 {
		t.Errorf("Attempts() = %d, want 2", tx.Attempts())
	}
	if v, _ := View(s, x); v.n != 11 {
		t.Errorf("x = %d, want 11", v.n)
	}
}

func TestTransaction_VersionCountsCommits(t *testing.T) {
	s := newTestSTM(t, WithWorkers(2))
	x := NewVar(s, newCounter(0))
	tx := Begin(increment(x, 2)).Build()

	for i := 1; i <= 3; i++ {
		mustCommit(t, s, tx)
		if got := tx.Version(); got != uint64(i) {
			t.Errorf("Version() = %d after %d commits", got, i)
		}
		if !tx.IsComplete() || tx.Aborted() {
			t.Errorf("IsComplete() = %v, Aborted() = %v; want true, false", tx.IsComplete(), tx.Aborted())
		}
		if tx.State() != StateCommitted {
			t.Errorf("State() = %v, want committed", tx.State())
		}
	}
	if v, _ := View(s, x); v.n != 6 {
		t.Errorf("x = %d, want 6", v.n)
	}
}

func TestRetryReason(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{ErrConflict.WithDetails("c"), ReasonConflict},
		{ErrStepPanicked.WithDetails("p"), ReasonPanic},
		{ErrStepFailed.WithCause(errors.New("x")), ReasonStepFailed},
	}
	for _, tt := range tests {
		if got := retryReason(tt.err); got != tt.want {
			t.Errorf("retryReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
