package stm

import "testing"

func TestQuarantine_WritesWin(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(1))
	y := NewVar(s, newCounter(2))

	reads := logSet{
		x.ID(): {cell: x.c, value: newCounter(1)},
		y.ID(): {cell: y.c, value: newCounter(2)},
	}
	writes := logSet{
		x.ID(): {cell: x.c, value: newCounter(10)},
	}
	q := newQuarantine(reads, writes)

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
	if v, ok := Lookup(q, x); !ok || v.n != 10 {
		t.Errorf("Lookup(x) = %v, %v; want 10, true", v, ok)
	}
	if v, ok := Lookup(q, y); !ok || v.n != 2 {
		t.Errorf("Lookup(y) = %v, %v; want 2, true", v, ok)
	}
}

func TestQuarantine_IsolatedFromSources(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(1))

	src := newCounter(5)
	q := newQuarantine(logSet{}, logSet{x.ID(): {cell: x.c, value: src}})
	src.n = 99

	v, _ := Lookup(q, x)
	if v.n != 5 {
		t.Errorf("snapshot followed source mutation: got %d, want 5", v.n)
	}

	v.n = 42
	again, _ := Lookup(q, x)
	if again.n != 5 {
		t.Errorf("snapshot followed result mutation: got %d, want 5", again.n)
	}
}

func TestQuarantine_Missing(t *testing.T) {
	s := newTestSTM(t, WithWorkers(1))
	x := NewVar(s, newCounter(1))
	q := newQuarantine(logSet{}, logSet{})

	if _, ok := q.Get(x); ok {
		t.Error("Get() on empty snapshot reported a value")
	}
	if _, ok := q.Get(nil); ok {
		t.Error("Get(nil) reported a value")
	}

	var nilQ *Quarantine
	if _, ok := nilQ.Get(x); ok {
		t.Error("nil Quarantine reported a value")
	}
	if nilQ.Len() != 0 {
		t.Error("nil Quarantine Len() != 0")
	}
}
