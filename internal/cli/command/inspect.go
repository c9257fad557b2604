package command

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/connection"
	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/server/httpserver/handler"
	"github.com/yndnr/stm-go/pkg/stm"
)

// InspectCommand returns the inspect subcommand group, which reads the
// admin API of a running soak.
func InspectCommand() *cli.Command {
	serverFlag := &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Admin server address (default: metrics.addr)",
		EnvVars: []string{"STM_SERVER"},
	}
	return &cli.Command{
		Name:  "inspect",
		Usage: "Read engine state from a running soak",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show engine counters",
				Flags:  []cli.Flag{serverFlag},
				Action: inspectStats,
			},
			{
				Name:  "cells",
				Usage: "List live cells and their committed values",
				Flags: []cli.Flag{
					serverFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of cells",
						Value: handler.DefaultListLimit,
					},
				},
				Action: inspectCells,
			},
			{
				Name:      "cell",
				Usage:     "Show the committed value of one cell",
				ArgsUsage: "CELL_ID",
				Flags:     []cli.Flag{serverFlag},
				Action:    inspectCell,
			},
		},
	}
}

func adminClient(c *cli.Context) *connection.Client {
	server := c.String("server")
	if server == "" {
		server = configFrom(c).Metrics.Addr
	}
	return connection.NewClient(server, connection.DefaultTimeout)
}

func inspectStats(c *cli.Context) error {
	var st stm.Stats
	if err := adminClient(c).Get(c.Context, "/v1/stats", &st); err != nil {
		return err
	}
	return printResult(c, st, nil)
}

func inspectCells(c *cli.Context) error {
	var resp handler.ListCellsResponse
	path := "/v1/cells?limit=" + strconv.Itoa(c.Int("limit"))
	if err := adminClient(c).Get(c.Context, path, &resp); err != nil {
		return err
	}

	table := &output.Table{Headers: []string{"ID", "TYPE", "VALUE"}}
	for _, v := range resp.Items {
		table.AddRow(v.ID, v.Type, v.Value)
	}
	if len(resp.Items) < resp.Total {
		table.AddRow(fmt.Sprintf("(%d more)", resp.Total-len(resp.Items)), "", "")
	}
	return printResult(c, resp, table)
}

func inspectCell(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("inspect cell: missing CELL_ID")
	}
	if _, err := stm.ParseCellID(id); err != nil {
		return err
	}

	var view handler.CellView
	if err := adminClient(c).Get(c.Context, "/v1/cells/"+url.PathEscape(id), &view); err != nil {
		return err
	}
	return printResult(c, view, nil)
}
