// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/absmach/twinexplorer"
	"github.com/spf13/cobra"
)

// NewVersionCmd returns version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Twin explorer version",
		Long:  `Twin explorer release version`,
		Run: func(cmd *cobra.Command, _ []string) {
			logJSONCmd(*cmd, map[string]string{
				"version": twinexplorer.Version,
			})
		},
	}
}
