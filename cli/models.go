// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/spf13/cobra"
)

const all = "all"

var errReadModels = errors.New("failed to read model file")

// readModels reads model documents from files. A file holds a single
// document or an array of documents.
func readModels(files []string) ([]json.RawMessage, error) {
	var docs []json.RawMessage
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.Wrap(errReadModels, err)
		}
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '[' {
			var arr []json.RawMessage
			if err := json.Unmarshal(data, &arr); err != nil {
				return nil, errors.Wrap(errReadModels, err)
			}
			docs = append(docs, arr...)
			continue
		}
		if !json.Valid(data) {
			return nil, errors.Wrap(errReadModels, errors.New(f))
		}
		docs = append(docs, json.RawMessage(data))
	}

	return docs, nil
}

var cmdModels = []cobra.Command{
	{
		Use:   "get [all | <model_id>]",
		Short: "Get models",
		Long: "Get all models or a model flattened with its bases\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli models get all\n" +
			"\ttwinexplorer-cli models get 'dtmi:example:Room;1'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			if args[0] == all {
				ms, err := svc.Models(context.Background())
				if err != nil {
					logErrorCmd(*cmd, err)
					return
				}
				logJSONCmd(*cmd, ms)
				return
			}

			m, err := svc.Model(context.Background(), args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, m)
		},
	},
	{
		Use:   "document <model_id>",
		Short: "Get model document",
		Long: "Gets a model as stored, with its definition\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli models document 'dtmi:example:Room;1'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			md, err := svc.ModelDocument(context.Background(), args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, md)
		},
	},
	{
		Use:   "upload <file> [<file>...]",
		Short: "Upload models",
		Long: "Uploads model documents, bases and components first\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli models upload space.json room.json\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			docs, err := readModels(args)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			saved, err := svc.UploadModels(context.Background(), docs)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, saved)
		},
	},
	{
		Use:   "delete [all | <model_id>]",
		Short: "Delete models",
		Long: "Deletes a model, or every model with dependents deleted first\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli models delete 'dtmi:example:Room;1'\n" +
			"\ttwinexplorer-cli models delete all\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}
			if args[0] == all {
				ids, err := svc.DeleteAllModels(context.Background())
				if err != nil {
					logErrorCmd(*cmd, err)
					return
				}
				logJSONCmd(*cmd, ids)
				return
			}

			if err := svc.DeleteModel(context.Background(), args[0]); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logOKCmd(*cmd)
		},
	},
	{
		Use:   "order <model_id> [<model_id>...]",
		Short: "Upload order",
		Long: "Orders models so that bases and components come before the models using them\n" +
			"Usage:\n" +
			"\ttwinexplorer-cli models order 'dtmi:example:Room;1' 'dtmi:example:Space;1'\n",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			ids, err := svc.ModelOrder(context.Background(), args)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, ids)
		},
	},
}

// NewModelsCmd returns models command.
func NewModelsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "models [get | document | upload | delete | order]",
		Short: "Models management",
		Long:  `Models management: get, upload or delete models, fetch stored documents and order them for upload`,
	}

	for i := range cmdModels {
		cmd.AddCommand(&cmdModels[i])
	}

	return &cmd
}
