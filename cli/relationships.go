// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var cmdRelationships = []cobra.Command{
	{
		Use:   "create <source_id> <target_id> <name> [<JSON_properties>]",
		Short: "Create relationship",
		Long: "Creates a relationship declared by the source twin's model\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli relationships create floor-1 room-1 contains\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 3 && len(args) != 4 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			var props string
			if len(args) == 4 {
				props = args[3]
			}
			properties, err := convertProperties(props)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			rel, err := svc.CreateRelationship(context.Background(), args[0], args[1], args[2], properties)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logCreatedCmd(*cmd, rel.ID)
		},
	},
	{
		Use:   "get <source_id> <relationship_id>",
		Short: "Get relationship",
		Long: "Gets a relationship of the source twin from the store\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli relationships get floor-1 r1\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			rel, err := svc.Relationship(context.Background(), args[0], args[1])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, rel)
		},
	},
	{
		Use:   "delete <source_id> <relationship_id>",
		Short: "Delete relationship",
		Long: "Deletes a relationship of the source twin\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli relationships delete floor-1 r1\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			if err := svc.DeleteRelationship(context.Background(), args[0], args[1]); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logOKCmd(*cmd)
		},
	},
	{
		Use:   "allowed <source_id> [<target_id>]",
		Short: "Allowed relationships",
		Long: "Lists the relationships the source twin may have to the target twin\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli relationships allowed floor-1 room-1\n" +
			"\ttwinexplorer-cli relationships allowed floor-1 - lists every relationship of the source twin\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 && len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			var target string
			if len(args) == 2 {
				target = args[1]
			}

			decls, err := svc.AllowedRelationships(context.Background(), args[0], target)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, decls)
		},
	},
}

// NewRelationshipsCmd returns relationships command.
func NewRelationshipsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "relationships [create | get | delete | allowed]",
		Short: "Relationships management",
		Long:  `Relationships management: create, get or delete relationships and list allowed relationships`,
	}

	for i := range cmdRelationships {
		cmd.AddCommand(&cmdRelationships[i])
	}

	return &cmd
}
