package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/config"
	"github.com/yndnr/stm-go/internal/infra/confloader"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration (defaults, file, STM_* env, flags)",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file, or the effective configuration",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	// A nested configuration does not fit two table columns.
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, configFrom(c))
}

func configValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		// setup already verified the effective configuration.
		fmt.Fprintln(c.App.Writer, "configuration is valid")
		return nil
	}

	cfg := config.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "%s: configuration is valid\n", path)
	return nil
}
