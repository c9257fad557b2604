package config

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/yndnr/stm-go/internal/workload/bank"
	"github.com/yndnr/stm-go/pkg/stm"
)

// EngineOptions maps the engine and retry sections onto stm options.
func (c *Config) EngineOptions(log *slog.Logger, observers ...stm.Observer) []stm.Option {
	opts := []stm.Option{
		stm.WithShardCount(c.Engine.Shards),
		stm.WithLogger(log),
	}
	if c.Engine.Workers > 0 {
		opts = append(opts, stm.WithWorkers(c.Engine.Workers))
		if c.Engine.QueueSize == 0 {
			opts = append(opts, stm.WithQueueSize(c.Engine.Workers*2))
		}
	}
	if c.Engine.QueueSize > 0 {
		opts = append(opts, stm.WithQueueSize(c.Engine.QueueSize))
	}
	if c.Engine.SubmitRate > 0 {
		opts = append(opts, stm.WithSubmitRate(rate.Limit(c.Engine.SubmitRate), c.Engine.SubmitBurst))
	}
	if c.Retry.Policy == RetryExponential {
		opts = append(opts, stm.WithRetryBackoff(
			stm.ExponentialRetry(c.Retry.Initial, c.Retry.Max, c.Retry.Multiplier)))
	}
	for _, o := range observers {
		opts = append(opts, stm.WithObserver(o))
	}
	return opts
}

// BankRun returns the bank workload settings.
func (c *Config) BankRun() bank.RunConfig {
	return bank.RunConfig{
		Accounts:       c.Workload.Accounts,
		InitialBalance: c.Workload.InitialBalance,
		Transfers:      c.Workload.Transfers,
		MaxAmount:      c.Workload.MaxAmount,
		Concurrency:    c.Workload.Concurrency,
		Seed:           c.Workload.Seed,
	}
}
