// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"

	"github.com/absmach/twinexplorer/twins"
	"github.com/spf13/cobra"
)

var cmdTwins = []cobra.Command{
	{
		Use:   "create <model_id> [<twin_id>] [<JSON_properties>]",
		Short: "Create twin",
		Long: "Creates a twin of the given model. Components of the model are initialized\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli twins create 'dtmi:example:Room;1'\n" +
			"\ttwinexplorer-cli twins create 'dtmi:example:Room;1' room-1 '{\"temperature\": 21.5}'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 3 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			var id, props string
			if len(args) > 1 {
				id = args[1]
			}
			if len(args) > 2 {
				props = args[2]
			}
			properties, err := convertProperties(props)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			tw, err := svc.CreateTwin(context.Background(), args[0], id, properties)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logCreatedCmd(*cmd, tw.ID)
		},
	},
	{
		Use:   "template <model_id>",
		Short: "Twin template",
		Long: "Shows the default property document of a new twin of the given model\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli twins template 'dtmi:example:Room;1'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			props, err := svc.TwinTemplate(context.Background(), args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, props)
		},
	},
	{
		Use:   "update <twin_id> <JSON_patch>",
		Short: "Update twin",
		Long: "Applies a JSON patch to a twin\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli twins update room-1 '[{\"op\": \"replace\", \"path\": \"/temperature\", \"value\": 22}]'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			var patches []twins.Patch
			if err := json.Unmarshal([]byte(args[1]), &patches); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			tw, err := svc.UpdateTwin(context.Background(), args[0], patches)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, tw)
		},
	},
	{
		Use:   "delete <twin_id> [<twin_id>...]",
		Short: "Delete twins",
		Long: "Deletes twins together with their relationships\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli twins delete room-1 room-2\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			if err := svc.DeleteTwins(context.Background(), args); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logOKCmd(*cmd)
		},
	},
}

// NewTwinsCmd returns twins command.
func NewTwinsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "twins [create | template | update | delete]",
		Short: "Twins management",
		Long:  `Twins management: create, update or delete twins and show new twin templates`,
	}

	for i := range cmdTwins {
		cmd.AddCommand(&cmdTwins[i])
	}

	return &cmd
}
