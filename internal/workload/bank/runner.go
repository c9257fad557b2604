package bank

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stm-go/pkg/stm"
)

// RunConfig controls a random-transfer run.
type RunConfig struct {
	Accounts       int
	InitialBalance int64
	// Transfers is the number of transfers to run. Zero or less runs until
	// the context is done.
	Transfers   int
	MaxAmount   int64
	Concurrency int
	Seed        uint64
}

// AccountBalance is one row of a Report.
type AccountBalance struct {
	Name    string `json:"name" yaml:"name"`
	Balance int64  `json:"balance" yaml:"balance"`
}

// Report summarises a run.
type Report struct {
	Accounts  []AccountBalance `json:"accounts" yaml:"accounts"`
	Total     int64            `json:"total" yaml:"total"`
	Expected  int64            `json:"expected" yaml:"expected"`
	Transfers int              `json:"transfers" yaml:"transfers"`
	Aborted   int              `json:"aborted" yaml:"aborted"`
	Commits   uint64           `json:"commits" yaml:"commits"`
	Retries   uint64           `json:"retries" yaml:"retries"`
	Elapsed   time.Duration    `json:"elapsed" yaml:"elapsed"`
}

// Conserved reports whether the total balance is unchanged.
func (r *Report) Conserved() bool {
	return r.Total == r.Expected
}

func (c *RunConfig) validate() error {
	if c.Accounts < 2 {
		return fmt.Errorf("accounts must be at least 2, got %d", c.Accounts)
	}
	if c.InitialBalance < 0 {
		return fmt.Errorf("initial balance must not be negative, got %d", c.InitialBalance)
	}
	if c.MaxAmount < 1 {
		return fmt.Errorf("max amount must be positive, got %d", c.MaxAmount)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// OpenAccounts registers n accounts named acct-000, acct-001, ...
func OpenAccounts(s *stm.STM, n int, initial int64) []*Account {
	accounts := make([]*Account, n)
	for i := range accounts {
		accounts[i] = Open(s, fmt.Sprintf("acct-%03d", i), initial)
	}
	return accounts
}

// Run opens cfg.Accounts accounts and runs random transfers between them
// with cfg.Concurrency submitters.
func Run(ctx context.Context, s *stm.STM, cfg RunConfig) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	accounts := OpenAccounts(s, cfg.Accounts, cfg.InitialBalance)
	return RunOn(ctx, s, accounts, cfg)
}

// RunOn runs random transfers between existing accounts.
func RunOn(ctx context.Context, s *stm.STM, accounts []*Account, cfg RunConfig) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(accounts) < 2 {
		return nil, fmt.Errorf("accounts must be at least 2, got %d", len(accounts))
	}
	expected, err := total(s, accounts)
	if err != nil {
		return nil, err
	}

	before := s.Stats()
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	var aborted atomic.Int64
	submitted := 0

	for cfg.Transfers <= 0 || submitted < cfg.Transfers {
		if gctx.Err() != nil {
			break
		}
		from := rng.IntN(len(accounts))
		to := rng.IntN(len(accounts) - 1)
		if to >= from {
			to++
		}
		tx := TransferAtMost(accounts[from], accounts[to], rng.Int64N(cfg.MaxAmount)+1)

		g.Go(func() error {
			f, err := s.Submit(gctx, tx)
			if err == nil {
				_, err = f.Wait(gctx)
			}
			switch {
			case err == nil:
				return nil
			case errors.Is(err, stm.ErrAborted):
				aborted.Add(1)
				return nil
			case ctx.Err() != nil:
				// The run is stopping.
				return nil
			default:
				return err
			}
		})
		submitted++
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	after := s.Stats()
	elapsed := time.Since(started)

	report, err := snapshot(s, accounts)
	if err != nil {
		return nil, err
	}
	report.Expected = expected
	report.Transfers = submitted
	report.Aborted = int(aborted.Load())
	report.Commits = after.Commits - before.Commits
	report.Retries = after.Retries - before.Retries
	report.Elapsed = elapsed
	return report, nil
}

func total(s *stm.STM, accounts []*Account) (int64, error) {
	var sum int64
	for _, a := range accounts {
		b, ok := a.Balance(s)
		if !ok {
			return 0, fmt.Errorf("account %s is not live", a.Name)
		}
		sum += b
	}
	return sum, nil
}

// snapshot reads every balance in one read-only transaction so the rows
// form a single consistent cut.
func snapshot(s *stm.STM, accounts []*Account) (*Report, error) {
	audit := stm.NewTransaction().Named("audit").Step(func(tx *stm.Transaction) error {
		for _, a := range accounts {
			stm.Load(tx, a.state)
		}
		return nil
	}).Build()

	f, err := s.Submit(context.Background(), audit)
	if err != nil {
		return snapshotByView(s, accounts)
	}
	q, err := f.Wait(context.Background())
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	r := &Report{Accounts: make([]AccountBalance, 0, len(accounts))}
	for _, a := range accounts {
		b, _ := stm.Lookup(q, a.state)
		var amount int64
		if b != nil {
			amount = b.Amount
		}
		r.Accounts = append(r.Accounts, AccountBalance{Name: a.Name, Balance: amount})
		r.Total += amount
	}
	return r, nil
}

// snapshotByView is used once the STM no longer accepts submissions. No
// commit can run concurrently then, so per-cell views are consistent.
func snapshotByView(s *stm.STM, accounts []*Account) (*Report, error) {
	r := &Report{Accounts: make([]AccountBalance, 0, len(accounts))}
	for _, a := range accounts {
		b, ok := a.Balance(s)
		if !ok {
			return nil, fmt.Errorf("account %s is not live", a.Name)
		}
		r.Accounts = append(r.Accounts, AccountBalance{Name: a.Name, Balance: b})
		r.Total += b
	}
	return r, nil
}
