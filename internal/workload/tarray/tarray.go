// Package tarray mutates one element of a shared integer array through
// commuting transactions.
package tarray

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stm-go/pkg/stm"
	"github.com/yndnr/stm-go/pkg/stm/values"
)

// TargetIndex is the element touched by the T1 and T2 operations.
const TargetIndex = 2

// Op names one of the array operations.
type Op string

const (
	// OpAdd adds 1001 to the target element.
	OpAdd Op = "T1"
	// OpSub subtracts 1000 from the target element.
	OpSub Op = "T2"
)

// Delta returns the amount op adds to the target element.
func (op Op) Delta() (int64, error) {
	switch op {
	case OpAdd:
		return 1001, nil
	case OpSub:
		return -1000, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", string(op))
	}
}

// ParseOrder parses a comma separated list such as "T2,T1,T2,T2".
func ParseOrder(s string) ([]Op, error) {
	var ops []Op
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		op := Op(part)
		if _, err := op.Delta(); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("empty operation order")
	}
	return ops, nil
}

// New registers an array cell holding items.
func New(s *stm.STM, items ...int64) *stm.TVar[*values.Ints] {
	return stm.NewVar(s, values.NewInts(items...))
}

// AddAt returns a step adding delta to element index of h. Arrays too
// short to have that element are left unchanged.
func AddAt(h *stm.TVar[*values.Ints], index int, delta int64) stm.Step {
	return func(tx *stm.Transaction) error {
		arr := stm.Load(tx, h)
		if arr == nil || index < 0 || index >= arr.Len() {
			return nil
		}
		arr.V[index] += delta
		stm.Store(tx, h, arr)
		return nil
	}
}

// Transaction builds the transaction for op.
func Transaction(h *stm.TVar[*values.Ints], op Op) (*stm.Transaction, error) {
	delta, err := op.Delta()
	if err != nil {
		return nil, err
	}
	return stm.Begin(AddAt(h, TargetIndex, delta)).Named(string(op)).Build(), nil
}

// Run applies ops to h. Sequential runs wait for each commit before
// submitting the next transaction; concurrent runs submit them all at once.
// The final array is returned.
func Run(ctx context.Context, s *stm.STM, h *stm.TVar[*values.Ints], ops []Op, concurrent bool) (*values.Ints, error) {
	txs := make([]*stm.Transaction, len(ops))
	for i, op := range ops {
		tx, err := Transaction(h, op)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}

	if concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for _, tx := range txs {
			g.Go(func() error {
				f, err := s.Submit(gctx, tx)
				if err != nil {
					return err
				}
				_, err = f.Wait(gctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, tx := range txs {
			f, err := s.Submit(ctx, tx)
			if err != nil {
				return nil, fmt.Errorf("%s #%d: %w", ops[i], i+1, err)
			}
			if _, err := f.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s #%d: %w", ops[i], i+1, err)
			}
		}
	}

	arr, ok := stm.View(s, h)
	if !ok {
		return nil, fmt.Errorf("array cell %s is not live", h.ID())
	}
	return arr, nil
}
