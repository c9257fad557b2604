package bank

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_ConservesTotal(t *testing.T) {
	s := newSTM(t, 8)
	cfg := RunConfig{
		Accounts:       10,
		InitialBalance: 1000,
		Transfers:      500,
		MaxAmount:      250,
		Concurrency:    16,
		Seed:           42,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r, err := Run(ctx, s, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !r.Conserved() {
		t.Errorf("total = %d, want %d", r.Total, r.Expected)
	}
	if r.Expected != 10000 {
		t.Errorf("Expected = %d, want 10000", r.Expected)
	}
	if r.Transfers != 500 {
		t.Errorf("Transfers = %d, want 500", r.Transfers)
	}
	if r.Commits < 500 {
		t.Errorf("Commits = %d, want at least 500", r.Commits)
	}
	if len(r.Accounts) != 10 {
		t.Errorf("len(Accounts) = %d, want 10", len(r.Accounts))
	}
	for _, a := range r.Accounts {
		if a.Balance < 0 {
			t.Errorf("account %s went negative: %d", a.Name, a.Balance)
		}
	}
}

func TestRun_UntilCancelled(t *testing.T) {
	s := newSTM(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r, err := Run(ctx, s, RunConfig{
		Accounts:       4,
		InitialBalance: 100,
		MaxAmount:      10,
		Concurrency:    4,
		Seed:           7,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !r.Conserved() {
		t.Errorf("total = %d, want %d", r.Total, r.Expected)
	}
	if r.Transfers == 0 {
		t.Error("no transfers submitted")
	}
}

func TestRunConfig_Validate(t *testing.T) {
	valid := RunConfig{Accounts: 2, InitialBalance: 1, MaxAmount: 1, Concurrency: 1}

	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr string
	}{
		{"valid", func(*RunConfig) {}, ""},
		{"one account", func(c *RunConfig) { c.Accounts = 1 }, "accounts"},
		{"negative balance", func(c *RunConfig) { c.InitialBalance = -1 }, "initial balance"},
		{"zero amount", func(c *RunConfig) { c.MaxAmount = 0 }, "max amount"},
		{"zero concurrency", func(c *RunConfig) { c.Concurrency = 0 }, "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunOn_TooFewAccounts(t *testing.T) {
	s := newSTM(t, 1)
	cfg := RunConfig{Accounts: 2, MaxAmount: 1, Concurrency: 1, Transfers: 1}

	for _, n := range []int{0, 1} {
		_, err := RunOn(context.Background(), s, OpenAccounts(s, n, 10), cfg)
		if err == nil || !strings.Contains(err.Error(), "accounts") {
			t.Errorf("RunOn(%d accounts) error = %v, want accounts error", n, err)
		}
	}
}

func TestOpenAccounts(t *testing.T) {
	s := newSTM(t, 1)
	accounts := OpenAccounts(s, 3, 5)
	if len(accounts) != 3 {
		t.Fatalf("len = %d, want 3", len(accounts))
	}
	if accounts[2].Name != "acct-002" {
		t.Errorf("Name = %q, want acct-002", accounts[2].Name)
	}
	if got := s.Stats().Cells; got != 3 {
		t.Errorf("Cells = %d, want 3", got)
	}
}
