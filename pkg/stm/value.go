package stm

import "reflect"

// Value is the contract for anything stored in a memory cell.
//
// Copy must return an independent deep copy: mutating the copy never
// affects the receiver and vice versa. Equal reports structural equality
// and is what commit-time validation uses to detect conflicts.
type Value interface {
	Copy() Value
	Equal(other Value) bool
}

// isNil reports whether v is absent, including a typed nil pointer.
func isNil(v Value) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func copyValue(v Value) Value {
	if isNil(v) {
		return nil
	}
	return v.Copy()
}

func valuesEqual(a, b Value) bool {
	switch {
	case isNil(a) && isNil(b):
		return true
	case isNil(a) || isNil(b):
		return false
	default:
		return a.Equal(b)
	}
}
