// Package bank models bank accounts whose balances live in STM cells.
package bank

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/yndnr/stm-go/pkg/stm"
)

// ErrInsufficientFunds fails a withdraw step. The transaction retries until
// the account is funded or its context ends.
var ErrInsufficientFunds = errors.New("bank: insufficient funds")

// ErrInvalidAmount rejects negative amounts.
var ErrInvalidAmount = errors.New("bank: invalid amount")

// Balance is the transactional state of an account.
type Balance struct {
	Amount int64
}

func (b *Balance) Copy() stm.Value { return &Balance{Amount: b.Amount} }

func (b *Balance) Equal(other stm.Value) bool {
	o, ok := other.(*Balance)
	return ok && o != nil && o.Amount == b.Amount
}

func (b *Balance) String() string { return strconv.FormatInt(b.Amount, 10) }

// Account pairs an account name with the cell holding its balance.
type Account struct {
	Name  string
	state *stm.TVar[*Balance]
}

// Open registers a new account in s.
func Open(s *stm.STM, name string, initial int64) *Account {
	return &Account{
		Name:  name,
		state: stm.NewVar(s, &Balance{Amount: initial}),
	}
}

// Handle returns the account's transactional variable.
func (a *Account) Handle() *stm.TVar[*Balance] {
	return a.state
}

// Balance returns the committed balance.
func (a *Account) Balance(s *stm.STM) (int64, bool) {
	b, ok := stm.View(s, a.state)
	if !ok {
		return 0, false
	}
	return b.Amount, true
}

// Withdraw returns a step taking amount out of a.
func Withdraw(a *Account, amount int64) stm.Step {
	return func(tx *stm.Transaction) error {
		if amount < 0 {
			return ErrInvalidAmount
		}
		b := stm.Load(tx, a.state)
		if b == nil {
			return fmt.Errorf("account %s: no balance", a.Name)
		}
		if b.Amount < amount {
			return fmt.Errorf("account %s: %w", a.Name, ErrInsufficientFunds)
		}
		stm.Store(tx, a.state, &Balance{Amount: b.Amount - amount})
		return nil
	}
}

// Deposit returns a step adding amount to a.
func Deposit(a *Account, amount int64) stm.Step {
	return func(tx *stm.Transaction) error {
		if amount < 0 {
			return ErrInvalidAmount
		}
		b := stm.Load(tx, a.state)
		if b == nil {
			return fmt.Errorf("account %s: no balance", a.Name)
		}
		stm.Store(tx, a.state, &Balance{Amount: b.Amount + amount})
		return nil
	}
}

// Transfer builds a transaction moving amount from one account to another.
// It waits, by retrying, until the source holds enough funds.
func Transfer(from, to *Account, amount int64) *stm.Transaction {
	return stm.Begin(transferStep(from, to, amount, false)).
		Named("transfer").
		Build()
}

// TransferAtMost builds a transaction moving min(amount, balance) from one
// account to another. It never waits for funds.
func TransferAtMost(from, to *Account, amount int64) *stm.Transaction {
	return stm.Begin(transferStep(from, to, amount, true)).
		Named("transfer").
		Build()
}

// transferStep reads both balances before writing either; reads never
// observe the transaction's own writes.
func transferStep(from, to *Account, amount int64, clamp bool) stm.Step {
	return func(tx *stm.Transaction) error {
		if amount < 0 {
			return ErrInvalidAmount
		}
		if from.state == to.state {
			return nil
		}
		src := stm.Load(tx, from.state)
		dst := stm.Load(tx, to.state)
		if src == nil || dst == nil {
			return fmt.Errorf("transfer %s -> %s: no balance", from.Name, to.Name)
		}
		if src.Amount < amount {
			if !clamp {
				return fmt.Errorf("account %s: %w", from.Name, ErrInsufficientFunds)
			}
			amount = src.Amount
		}
		stm.Store(tx, from.state, &Balance{Amount: src.Amount - amount})
		stm.Store(tx, to.state, &Balance{Amount: dst.Amount + amount})
		return nil
	}
}
