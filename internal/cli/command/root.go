package command

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/config"
	"github.com/yndnr/stm-go/internal/infra/buildinfo"
	"github.com/yndnr/stm-go/internal/infra/confloader"
	"github.com/yndnr/stm-go/internal/telemetry/logger"
)

const (
	metaConfig = "config"
	metaLogger = "logger"
)

// App creates the stmctl application.
func App() *cli.App {
	return &cli.App{
		Name:    "stmctl",
		Usage:   "Drive and inspect the software transactional memory engine",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BankCommand(),
			ArrayCommand(),
			SoakCommand(),
			InspectCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"STM_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Engine worker goroutines (0 = GOMAXPROCS)",
		},
	}
}

// GlobalFlags holds the flags shared by every command.
type GlobalFlags struct {
	Config    string
	LogLevel  string
	LogFormat string
	Output    string
	Wide      bool
	Workers   int
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:    c.String("config"),
		LogLevel:  c.String("log-level"),
		LogFormat: c.String("log-format"),
		Output:    c.String("output"),
		Wide:      c.Bool("wide"),
		Workers:   c.Int("workers"),
	}
}

// overrides maps the global flags the user set onto configuration keys.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		m["log.format"] = c.String("log-format")
	}
	if c.IsSet("workers") {
		m["engine.workers"] = c.Int("workers")
	}
	return m
}

// loadConfig merges defaults, file, environment and flags, in rising order
// of precedence, and verifies the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLogger] = log
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func loggerFrom(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Default()
}

// printResult writes data in the selected output format. When the format
// is table and table is not nil, table is rendered instead of data.
func printResult(c *cli.Context, data any, table *output.Table) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	if format == output.FormatTable && table != nil {
		return table.Render(c.App.Writer)
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

func newRunID() string {
	return "run-" + strings.ToLower(ulid.Make().String())
}
