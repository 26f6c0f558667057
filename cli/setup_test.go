// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/absmach/twinexplorer/cli"
	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	"github.com/absmach/twinexplorer/logger"
	"github.com/absmach/twinexplorer/pkg/uuid"
	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outputLog uint8

const (
	usageLog outputLog = iota
	errLog
	entityLog
	okLog
	createLog
)

const (
	spaceID    = "dtmi:example:Space;1"
	floorID    = "dtmi:example:Floor;1"
	roomID     = "dtmi:example:Room;1"
	sensorID   = "dtmi:example:Sensor;1"
	validFloor = "floor-1"
)

var (
	spaceDoc = `{
		"@id": "dtmi:example:Space;1",
		"@type": "Interface",
		"contents": [{"@type": "Property", "name": "name", "schema": "string"}]
	}`
	floorDoc = `{
		"@id": "dtmi:example:Floor;1",
		"@type": "Interface",
		"extends": "dtmi:example:Space;1",
		"contents": [
			{"@type": "Relationship", "name": "contains", "target": "dtmi:example:Room;1"},
			{"@type": "Property", "name": "level", "schema": "integer"}
		]
	}`
	roomDoc = `{
		"@id": "dtmi:example:Room;1",
		"@type": "Interface",
		"extends": "dtmi:example:Space;1",
		"contents": [
			{"@type": "Component", "name": "sensor", "schema": "dtmi:example:Sensor;1"},
			{"@type": "Property", "name": "temperature", "schema": "double"}
		]
	}`
	sensorDoc = `{"@id": "dtmi:example:Sensor;1", "@type": "Interface"}`
)

// newService sets the explorer used by the commands to one backed by an
// in-memory store holding a floor with two rooms.
func newService(t *testing.T) *mocks.Store {
	store := mocks.NewStore(2)
	docs := []json.RawMessage{json.RawMessage(spaceDoc), json.RawMessage(sensorDoc), json.RawMessage(floorDoc), json.RawMessage(roomDoc)}
	_, err := store.AddModels(context.Background(), docs)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	store.Seed(
		[]twins.Twin{
			{ID: validFloor, ModelID: floorID, Properties: map[string]any{"level": 1}},
			{ID: "room-1", ModelID: roomID},
			{ID: "room-2", ModelID: roomID},
		},
		[]twins.Relationship{
			{ID: "r1", SourceID: validFloor, TargetID: "room-1", Name: "contains"},
		},
	)
	cli.SetService(explorer.New(twins.NewClient(store), graph.NewCanvas(nil), uuid.NewMock(), logger.NewMock()))

	return store
}

func executeCommand(t *testing.T, root *cobra.Command, args ...string) string {
	buffer := new(bytes.Buffer)
	root.SetOut(buffer)
	root.SetErr(buffer)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	assert.NoError(t, err, "Error executing command")
	return buffer.String()
}

func setFlags(rootCmd *cobra.Command) *cobra.Command {
	// Root Flags
	rootCmd.PersistentFlags().BoolVarP(
		&cli.RawOutput,
		"raw",
		"r",
		false,
		"Enables raw output mode for easier parsing of output",
	)

	rootCmd.PersistentFlags().StringVarP(
		&cli.Format,
		"output",
		"o",
		"json",
		"Output format",
	)

	// Graph Flags
	rootCmd.PersistentFlags().StringVarP(
		&cli.Direction,
		"direction",
		"d",
		"outgoing",
		"Relationship direction",
	)

	rootCmd.PersistentFlags().IntVarP(
		&cli.Levels,
		"levels",
		"l",
		1,
		"Relationship expansion levels",
	)

	rootCmd.PersistentFlags().BoolVar(
		&cli.Eager,
		"eager",
		false,
		"Eager loading",
	)

	rootCmd.PersistentFlags().StringSliceVar(
		&cli.Highlight,
		"highlight",
		nil,
		"Twins highlighted once the graph is loaded",
	)

	rootCmd.PersistentFlags().StringVar(
		&cli.Filter,
		"filter",
		"",
		"Text loaded twins are filtered by",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cli.Progress,
		"progress",
		"p",
		false,
		"Print load progress",
	)

	return rootCmd
}

func checkOutput(t *testing.T, desc string, out string, logType outputLog, contains ...string) {
	switch logType {
	case usageLog:
		assert.Contains(t, out, "usage:", fmt.Sprintf("%s: expected usage got %s", desc, out))
	case errLog:
		assert.Contains(t, out, "error:", fmt.Sprintf("%s: expected error got %s", desc, out))
	case okLog:
		assert.Contains(t, out, "ok", fmt.Sprintf("%s: expected ok got %s", desc, out))
	case createLog:
		assert.Contains(t, out, "created:", fmt.Sprintf("%s: expected created got %s", desc, out))
	case entityLog:
		assert.NotContains(t, out, "error:", fmt.Sprintf("%s: unexpected error %s", desc, out))
	}
	for _, c := range contains {
		assert.Contains(t, out, c, fmt.Sprintf("%s: expected %q in %s", desc, c, out))
	}
}
