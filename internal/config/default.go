package config

import "time"

// Default configuration values.
const (
	DefaultShards = 16

	DefaultRetryInitial    = time.Millisecond
	DefaultRetryMax        = 50 * time.Millisecond
	DefaultRetryMultiplier = 2.0

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsAddr = "127.0.0.1:9464"

	DefaultAccounts       = 10
	DefaultInitialBalance = 1000
	DefaultTransfers      = 10000
	DefaultMaxAmount      = 100
	DefaultConcurrency    = 64
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineSection{
			Shards: DefaultShards,
		},
		Retry: RetrySection{
			Policy:     RetryImmediate,
			Initial:    DefaultRetryInitial,
			Max:        DefaultRetryMax,
			Multiplier: DefaultRetryMultiplier,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
		},
		Workload: WorkloadSection{
			Accounts:       DefaultAccounts,
			InitialBalance: DefaultInitialBalance,
			Transfers:      DefaultTransfers,
			MaxAmount:      DefaultMaxAmount,
			Concurrency:    DefaultConcurrency,
			Seed:           1,
		},
	}
}
