package stm

// Handle is an opaque reference to a memory cell. It is implemented only
// by *TVar, so callers cannot reach a cell except through a Transaction or
// the STM that owns it.
type Handle interface {
	ID() CellID
	memCell() *memoryCell
}

// TVar is a typed transactional variable.
type TVar[V Value] struct {
	c *memoryCell
}

// ID returns the identifier of the underlying cell, or the zero ID for a
// nil handle.
func (v *TVar[V]) ID() CellID {
	if v == nil || v.c == nil {
		return CellID{}
	}
	return v.c.id
}

// String implements fmt.Stringer.
func (v *TVar[V]) String() string {
	return "tvar(" + v.ID().String() + ")"
}

func (v *TVar[V]) memCell() *memoryCell {
	if v == nil {
		return nil
	}
	return v.c
}

// cellOf dereferences h, tolerating both a nil interface and a typed nil.
func cellOf(h Handle) *memoryCell {
	if h == nil {
		return nil
	}
	return h.memCell()
}
