package config

import "time"

// Config is the root configuration.
type Config struct {
	Engine   EngineSection   `koanf:"engine" yaml:"engine" json:"engine"`
	Retry    RetrySection    `koanf:"retry" yaml:"retry" json:"retry"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics" json:"metrics"`
	Workload WorkloadSection `koanf:"workload" yaml:"workload" json:"workload"`
}

// EngineSection configures the STM worker pool.
type EngineSection struct {
	// Workers is the number of worker goroutines. Zero means GOMAXPROCS.
	Workers int `koanf:"workers" yaml:"workers" json:"workers"`
	// QueueSize is the submission queue capacity. Zero means 2*Workers.
	QueueSize int `koanf:"queue_size" yaml:"queue_size" json:"queue_size"`
	// Shards is the live-cell set shard count, a power of two.
	Shards int `koanf:"shards" yaml:"shards" json:"shards"`
	// SubmitRate limits submissions per second. Zero disables the limit.
	SubmitRate float64 `koanf:"submit_rate" yaml:"submit_rate" json:"submit_rate"`
	// SubmitBurst is the token bucket size used with SubmitRate.
	SubmitBurst int `koanf:"submit_burst" yaml:"submit_burst" json:"submit_burst"`
}

// RetryPolicy names a delay policy between attempts.
type RetryPolicy string

const (
	RetryImmediate   RetryPolicy = "immediate"
	RetryExponential RetryPolicy = "exponential"
)

// RetrySection configures the delay between a failed attempt and the next.
type RetrySection struct {
	Policy     RetryPolicy   `koanf:"policy" yaml:"policy" json:"policy"`
	Initial    time.Duration `koanf:"initial" yaml:"initial" json:"initial"`
	Max        time.Duration `koanf:"max" yaml:"max" json:"max"`
	Multiplier float64       `koanf:"multiplier" yaml:"multiplier" json:"multiplier"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// MetricsSection configures the admin HTTP server used by soak runs.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr" json:"addr"`
}

// WorkloadSection configures the bank workload.
type WorkloadSection struct {
	Accounts       int           `koanf:"accounts" yaml:"accounts" json:"accounts"`
	InitialBalance int64         `koanf:"initial_balance" yaml:"initial_balance" json:"initial_balance"`
	Transfers      int           `koanf:"transfers" yaml:"transfers" json:"transfers"`
	MaxAmount      int64         `koanf:"max_amount" yaml:"max_amount" json:"max_amount"`
	Concurrency    int           `koanf:"concurrency" yaml:"concurrency" json:"concurrency"`
	Seed           uint64        `koanf:"seed" yaml:"seed" json:"seed"`
	Duration       time.Duration `koanf:"duration" yaml:"duration" json:"duration"`
}
