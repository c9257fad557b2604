package command

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/config"
	"github.com/yndnr/stm-go/internal/telemetry/logger"
	"github.com/yndnr/stm-go/internal/workload/bank"
	"github.com/yndnr/stm-go/pkg/stm"
)

// engineCloseTimeout bounds the wait for workers when a command exits.
const engineCloseTimeout = 10 * time.Second

// BankCommand returns the bank command.
func BankCommand() *cli.Command {
	return &cli.Command{
		Name:  "bank",
		Usage: "Run concurrent random transfers and check that money is conserved",
		Flags: append(workloadFlags(),
			&cli.IntFlag{
				Name:  "transfers",
				Usage: "Number of transfers to run",
			},
		),
		Action: bankRun,
	}
}

func workloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "accounts", Usage: "Number of accounts"},
		&cli.Int64Flag{Name: "initial-balance", Usage: "Opening balance of each account"},
		&cli.Int64Flag{Name: "max-amount", Usage: "Upper bound of a single transfer"},
		&cli.IntFlag{Name: "concurrency", Usage: "Concurrent submitters"},
		&cli.Uint64Flag{Name: "seed", Usage: "Random seed"},
	}
}

// applyWorkloadFlags copies the workload flags the user set into cfg and
// verifies the result.
func applyWorkloadFlags(c *cli.Context, cfg *config.Config) error {
	w := &cfg.Workload
	if c.IsSet("accounts") {
		w.Accounts = c.Int("accounts")
	}
	if c.IsSet("initial-balance") {
		w.InitialBalance = c.Int64("initial-balance")
	}
	if c.IsSet("max-amount") {
		w.MaxAmount = c.Int64("max-amount")
	}
	if c.IsSet("concurrency") {
		w.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("seed") {
		w.Seed = c.Uint64("seed")
	}
	if c.IsSet("transfers") {
		w.Transfers = c.Int("transfers")
	}
	if c.IsSet("duration") {
		w.Duration = c.Duration("duration")
	}
	return config.Verify(cfg)
}

func closeEngine(s *stm.STM, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), engineCloseTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		log.Warn("engine close", "error", err)
	}
}

func bankRun(c *cli.Context) error {
	cfg := configFrom(c)
	if err := applyWorkloadFlags(c, cfg); err != nil {
		return err
	}
	log := loggerFrom(c)

	s := stm.New(cfg.EngineOptions(log.Slog())...)
	defer closeEngine(s, log)

	ctx := logger.WithRunID(c.Context, newRunID())
	report, err := bank.Run(ctx, s, cfg.BankRun())
	if err != nil {
		return fmt.Errorf("bank run: %w", err)
	}
	logger.L(ctx).Info("bank run finished",
		"transfers", report.Transfers,
		"commits", report.Commits,
		"retries", report.Retries,
		"elapsed", report.Elapsed)

	return printReport(c, report)
}

// reportSummary is the table rendering of the totals of a bank.Report.
type reportSummary struct {
	Total     int64         `json:"total"`
	Expected  int64         `json:"expected"`
	Conserved bool          `json:"conserved"`
	Transfers int           `json:"transfers"`
	Aborted   int           `json:"aborted"`
	Commits   uint64        `json:"commits"`
	Retries   uint64        `json:"retries"`
	Elapsed   time.Duration `json:"elapsed"`
}

// printReport prints the report and fails if money was created or lost.
func printReport(c *cli.Context, r *bank.Report) error {
	table := &output.Table{Headers: []string{"ACCOUNT", "BALANCE"}}
	for _, a := range r.Accounts {
		table.AddRow(a.Name, strconv.FormatInt(a.Balance, 10))
	}
	table.AddRow("", "")
	table.AddRow("TOTAL", strconv.FormatInt(r.Total, 10))
	table.AddRow("EXPECTED", strconv.FormatInt(r.Expected, 10))

	if err := printResult(c, r, table); err != nil {
		return err
	}
	if format, _ := output.ParseFormat(ParseGlobalFlags(c).Output); format == output.FormatTable {
		fmt.Fprintln(c.App.Writer)
		summary := reportSummary{
			Total:     r.Total,
			Expected:  r.Expected,
			Conserved: r.Conserved(),
			Transfers: r.Transfers,
			Aborted:   r.Aborted,
			Commits:   r.Commits,
			Retries:   r.Retries,
			Elapsed:   r.Elapsed,
		}
		if err := (&output.TableFormatter{}).Format(c.App.Writer, summary); err != nil {
			return err
		}
	}

	if !r.Conserved() {
		return fmt.Errorf("total balance changed: got %d, want %d", r.Total, r.Expected)
	}
	return nil
}
