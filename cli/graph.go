// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"strings"

	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/twins"
	"github.com/spf13/cobra"
)

const defQuery = "SELECT * FROM DIGITALTWINS"

type loadOutput struct {
	Result graph.LoadResult `json:"result"`
	Graph  graph.Snapshot   `json:"graph"`
}

func loadOptions(cmd cobra.Command) (graph.LoadOptions, error) {
	dir, err := twins.ParseDirection(Direction)
	if err != nil {
		return graph.LoadOptions{}, err
	}
	opts := graph.LoadOptions{
		ClearExisting:   Clear,
		ExpansionLevels: Levels,
		Direction:       dir,
		EagerLoading:    Eager,
		Concurrency:     Concurrency,
	}
	if Progress {
		opts.OnProgress = func(p float64) {
			logProgressCmd(cmd, p)
		}
	}

	return opts, nil
}

// applyView highlights and filters the loaded graph. A load resets both so
// they are applied once the load finishes.
func applyView() error {
	if len(Highlight) > 0 {
		if err := svc.Highlight(context.Background(), Highlight); err != nil {
			return err
		}
	}
	if Filter != "" {
		svc.SetFilter(context.Background(), Filter)
	}

	return nil
}

var cmdGraph = []cobra.Command{
	{
		Use:   "load [<query>]",
		Short: "Load twin graph",
		Long: "Runs a twin query and loads the returned twins with their relationships\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli graph load - loads every twin\n" +
			"\ttwinexplorer-cli graph load \"SELECT * FROM DIGITALTWINS WHERE IS_OF_MODEL('dtmi:example:Room;1')\" --levels=2 --direction=all\n" +
			"\ttwinexplorer-cli graph load --highlight=floor-1,room-1 --filter=room\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			query := defQuery
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				query = args[0]
			}
			opts, err := loadOptions(*cmd)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			res, err := svc.LoadGraph(context.Background(), query, opts)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			if err := applyView(); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, loadOutput{Result: res, Graph: svc.Graph(context.Background())})
		},
	},
	{
		Use:   "expand <twin_id> [<twin_id>...]",
		Short: "Expand twins",
		Long: "Loads the given twins and the relationships around them\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli graph expand floor-1 --levels=2\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			opts, err := loadOptions(*cmd)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			quoted := make([]string, len(args))
			for i, id := range args {
				quoted[i] = "'" + strings.ReplaceAll(id, "'", "\\'") + "'"
			}
			query := "SELECT * FROM DIGITALTWINS T WHERE T.$dtId IN [" + strings.Join(quoted, ", ") + "]"
			if _, err := svc.LoadGraph(context.Background(), query, graph.LoadOptions{Direction: opts.Direction}); err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			res, err := svc.Expand(context.Background(), args, opts)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			if err := applyView(); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, loadOutput{Result: res, Graph: svc.Graph(context.Background())})
		},
	},
}

// NewGraphCmd returns graph command.
func NewGraphCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "graph [load | expand]",
		Short: "Twin graph",
		Long:  `Twin graph: load query results or expand twins`,
	}

	for i := range cmdGraph {
		cmd.AddCommand(&cmdGraph[i])
	}

	return &cmd
}
