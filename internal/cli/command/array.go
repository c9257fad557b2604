package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/workload/tarray"
	"github.com/yndnr/stm-go/pkg/stm"
)

// ArrayCommand returns the array command.
func ArrayCommand() *cli.Command {
	return &cli.Command{
		Name:  "array",
		Usage: "Apply T1/T2 mutators to one element of a shared array",
		Description: "T1 adds 1001 and T2 subtracts 1000 at index 2. With the default order\n" +
			"and items the final array is [1 2 -1996 4 5].",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "order",
				Usage: "Comma separated list of T1 and T2",
				Value: "T2,T1,T2,T2",
			},
			&cli.Int64SliceFlag{
				Name:  "items",
				Usage: "Initial array contents",
				Value: cli.NewInt64Slice(1, 2, 3, 4, 5),
			},
			&cli.BoolFlag{
				Name:  "concurrent",
				Usage: "Submit every transaction at once instead of one after another",
			},
		},
		Action: arrayRun,
	}
}

type arrayResult struct {
	Order      string  `json:"order" yaml:"order"`
	Concurrent bool    `json:"concurrent" yaml:"concurrent"`
	Items      []int64 `json:"items" yaml:"items"`
	Sum        int64   `json:"sum" yaml:"sum"`
}

func arrayRun(c *cli.Context) error {
	ops, err := tarray.ParseOrder(c.String("order"))
	if err != nil {
		return err
	}
	items := c.Int64Slice("items")

	cfg := configFrom(c)
	log := loggerFrom(c)
	s := stm.New(cfg.EngineOptions(log.Slog())...)
	defer closeEngine(s, log)

	h := tarray.New(s, items...)
	arr, err := tarray.Run(c.Context, s, h, ops, c.Bool("concurrent"))
	if err != nil {
		return fmt.Errorf("array run: %w", err)
	}

	table := &output.Table{Headers: []string{"INDEX", "VALUE"}}
	for i, v := range arr.V {
		table.AddRow(strconv.Itoa(i), strconv.FormatInt(v, 10))
	}
	return printResult(c, arrayResult{
		Order:      c.String("order"),
		Concurrent: c.Bool("concurrent"),
		Items:      arr.V,
		Sum:        arr.Sum(),
	}, table)
}
