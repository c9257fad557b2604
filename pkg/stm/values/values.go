package values

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/yndnr/stm-go/pkg/stm"
)

// Int is an int64 cell value.
type Int struct {
	V int64
}

// NewInt returns a pointer to an Int holding v.
func NewInt(v int64) *Int { return &Int{V: v} }

func (i *Int) Copy() stm.Value { return &Int{V: i.V} }

func (i *Int) Equal(other stm.Value) bool {
	o, ok := other.(*Int)
	return ok && o != nil && o.V == i.V
}

func (i *Int) String() string { return strconv.FormatInt(i.V, 10) }

// Text is a string cell value.
type Text struct {
	V string
}

// NewText returns a pointer to a Text holding v.
func NewText(v string) *Text { return &Text{V: v} }

func (t *Text) Copy() stm.Value { return &Text{V: t.V} }

func (t *Text) Equal(other stm.Value) bool {
	o, ok := other.(*Text)
	return ok && o != nil && o.V == t.V
}

func (t *Text) String() string { return t.V }

// Ints is an int64 slice cell value. Copy clones the backing array.
type Ints struct {
	V []int64
}

// NewInts returns an Ints holding a copy of v.
func NewInts(v ...int64) *Ints { return &Ints{V: slices.Clone(v)} }

// Zeros returns an Ints of length n filled with zeros.
func Zeros(n int) *Ints { return &Ints{V: make([]int64, n)} }

func (a *Ints) Copy() stm.Value { return &Ints{V: slices.Clone(a.V)} }

func (a *Ints) Equal(other stm.Value) bool {
	o, ok := other.(*Ints)
	return ok && o != nil && slices.Equal(a.V, o.V)
}

func (a *Ints) String() string { return fmt.Sprint(a.V) }

// Len returns the number of elements.
func (a *Ints) Len() int { return len(a.V) }

// Sum returns the sum of all elements.
func (a *Ints) Sum() int64 {
	var total int64
	for _, x := range a.V {
		total += x
	}
	return total
}
