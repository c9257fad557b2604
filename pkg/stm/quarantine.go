package stm

// entry is one quarantined value and the cell it belongs to.
type entry struct {
	cell  *memoryCell
	value Value
}

// logSet is a transaction-local map from cell to quarantined value.
type logSet map[CellID]entry

// Quarantine is the immutable post-commit view of a transaction: its final
// read set merged with its write set, write values taking precedence.
//
// Values are deep-copied on the way in and on the way out, so a Quarantine
// never aliases live cells or the transaction that produced it.
type Quarantine struct {
	table map[CellID]Value
}

func newQuarantine(reads, writes logSet) *Quarantine {
	q := &Quarantine{table: make(map[CellID]Value, len(reads)+len(writes))}
	for id, e := range reads {
		q.table[id] = copyValue(e.value)
	}
	for id, e := range writes {
		q.table[id] = copyValue(e.value)
	}
	return q
}

// Get returns a copy of the value recorded for h.
func (q *Quarantine) Get(h Handle) (Value, bool) {
	if q == nil || h == nil {
		return nil, false
	}
	v, ok := q.table[h.ID()]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// Len returns the number of cells recorded.
func (q *Quarantine) Len() int {
	if q == nil {
		return 0
	}
	return len(q.table)
}

// Lookup is the typed form of Quarantine.Get. It reports false when h is
// not recorded or holds a value of another type.
func Lookup[V Value](q *Quarantine, h *TVar[V]) (V, bool) {
	var zero V
	v, ok := q.Get(h)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}
