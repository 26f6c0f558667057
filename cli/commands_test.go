// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/twinexplorer/cli"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/pkg/sdk"
	"github.com/absmach/twinexplorer/twins"
	"github.com/absmach/twinexplorer/twins/mocks"
	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kitchenDoc = `{"@id": "dtmi:example:Kitchen;1", "@type": "Interface", "extends": "dtmi:example:Room;1"}`

var namegen = namegenerator.NewNameGenerator()

func TestGraphCmd(t *testing.T) {
	cases := []struct {
		desc     string
		args     []string
		logType  outputLog
		contains []string
	}{
		{
			desc:     "load every twin",
			args:     []string{"load", "-r"},
			logType:  entityLog,
			contains: []string{`"floor-1"`, `"room-1"`, `"room-2"`, `"r1"`},
		},
		{
			desc:     "load with incoming relationships",
			args:     []string{"load", "--direction=incoming", "-r"},
			logType:  entityLog,
			contains: []string{`"r1"`},
		},
		{
			desc:     "load with progress",
			args:     []string{"load", "-p", "-r"},
			logType:  entityLog,
			contains: []string{"loading:"},
		},
		{
			desc:    "load with invalid direction",
			args:    []string{"load", "--direction=sideways"},
			logType: errLog,
		},
		{
			desc:    "load with too many arguments",
			args:    []string{"load", "a", "b"},
			logType: usageLog,
		},
		{
			desc:     "expand twin",
			args:     []string{"expand", validFloor, "-r"},
			logType:  entityLog,
			contains: []string{`"floor-1"`, `"room-1"`},
		},
		{
			desc:    "expand without twins",
			args:    []string{"expand"},
			logType: usageLog,
		},
		{
			desc:     "load with highlight and filter",
			args:     []string{"load", "--highlight=room-1,floor-1", "--filter=room", "-r"},
			logType:  entityLog,
			contains: []string{`"highlighted":["floor-1","room-1"]`, `"filter":"room"`},
		},
		{
			desc:     "expand with highlight",
			args:     []string{"expand", validFloor, "--highlight=room-1", "-r"},
			logType:  entityLog,
			contains: []string{`"highlighted":["room-1"]`},
		},
		{
			desc:    "load highlighting a twin that is not loaded",
			args:    []string{"load", "--highlight=room-9"},
			logType: errLog,
		},
		{
			desc:     "load as yaml",
			args:     []string{"load", "-o", "yaml"},
			logType:  entityLog,
			contains: []string{"twins:", "id: floor-1"},
		},
		{
			desc:    "load with unsupported format",
			args:    []string{"load", "-o", "xml"},
			logType: errLog,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			newService(t)
			cmd := setFlags(cli.NewGraphCmd())
			out := executeCommand(t, cmd, tc.args...)
			checkOutput(t, tc.desc, out, tc.logType, tc.contains...)
		})
	}
}

func TestTwinsCmd(t *testing.T) {
	name := namegen.Generate()

	cases := []struct {
		desc     string
		args     []string
		logType  outputLog
		contains []string
		twins    []string
	}{
		{
			desc:     "create twin",
			args:     []string{"create", roomID, name, `{"temperature": 20}`},
			logType:  createLog,
			contains: []string{name},
			twins:    []string{validFloor, name, "room-1", "room-2"},
		},
		{
			desc:    "create twin with invalid properties",
			args:    []string{"create", roomID, name, `{"temperature":`},
			logType: errLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:    "create twin of unknown model",
			args:    []string{"create", "dtmi:example:Nothing;1", name},
			logType: errLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:    "create twin without model",
			args:    []string{"create"},
			logType: usageLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:     "twin template",
			args:     []string{"template", roomID, "-r"},
			logType:  entityLog,
			contains: []string{`"sensor"`, `"temperature"`, `"name"`},
			twins:    []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:     "update twin",
			args:     []string{"update", validFloor, `[{"op": "replace", "path": "/level", "value": 4}]`, "-r"},
			logType:  entityLog,
			contains: []string{`"level":4`},
			twins:    []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:    "update twin with invalid patch",
			args:    []string{"update", validFloor, `{"op": "replace"}`},
			logType: errLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:    "delete twins with relationships",
			args:    []string{"delete", validFloor, "room-1"},
			logType: okLog,
			twins:   []string{"room-2"},
		},
		{
			desc:    "delete unknown twin",
			args:    []string{"delete", "nothing"},
			logType: errLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
		{
			desc:    "delete without twins",
			args:    []string{"delete"},
			logType: usageLog,
			twins:   []string{validFloor, "room-1", "room-2"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			store := newService(t)
			cmd := setFlags(cli.NewTwinsCmd())
			out := executeCommand(t, cmd, tc.args...)
			checkOutput(t, tc.desc, out, tc.logType, tc.contains...)
			assert.ElementsMatch(t, tc.twins, store.Twins(), tc.desc)
		})
	}
}

func TestRelationshipsCmd(t *testing.T) {
	cases := []struct {
		desc     string
		args     []string
		logType  outputLog
		contains []string
		count    int
	}{
		{
			desc:    "create relationship",
			args:    []string{"create", validFloor, "room-2", "contains"},
			logType: createLog,
			count:   2,
		},
		{
			desc:    "create undeclared relationship",
			args:    []string{"create", "room-1", "room-2", "contains"},
			logType: errLog,
			count:   1,
		},
		{
			desc:    "create relationship without name",
			args:    []string{"create", validFloor, "room-2"},
			logType: usageLog,
			count:   1,
		},
		{
			desc:     "get relationship",
			args:     []string{"get", validFloor, "r1", "-r"},
			logType:  entityLog,
			contains: []string{`"room-1"`, `"contains"`},
			count:    1,
		},
		{
			desc:    "get unknown relationship",
			args:    []string{"get", validFloor, "r2"},
			logType: errLog,
			count:   1,
		},
		{
			desc:    "get relationship without id",
			args:    []string{"get", validFloor},
			logType: usageLog,
			count:   1,
		},
		{
			desc:    "delete relationship",
			args:    []string{"delete", validFloor, "r1"},
			logType: okLog,
			count:   0,
		},
		{
			desc:    "delete unknown relationship",
			args:    []string{"delete", validFloor, "r2"},
			logType: errLog,
			count:   1,
		},
		{
			desc:     "allowed relationships to target",
			args:     []string{"allowed", validFloor, "room-2", "-r"},
			logType:  entityLog,
			contains: []string{"contains"},
			count:    1,
		},
		{
			desc:    "allowed relationships of a room",
			args:    []string{"allowed", "room-1", validFloor, "-r"},
			logType: entityLog,
			count:   1,
		},
		{
			desc:    "allowed relationships of unknown twin",
			args:    []string{"allowed", "nothing"},
			logType: errLog,
			count:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			store := newService(t)
			cmd := setFlags(cli.NewRelationshipsCmd())
			out := executeCommand(t, cmd, tc.args...)
			checkOutput(t, tc.desc, out, tc.logType, tc.contains...)
			assert.Equal(t, tc.count, store.RelationshipCount(), tc.desc)
		})
	}
}

func TestModelsCmd(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "kitchen.json")
	require.Nil(t, os.WriteFile(single, []byte(kitchenDoc), 0o600))
	array := filepath.Join(dir, "models.json")
	require.Nil(t, os.WriteFile(array, []byte("["+kitchenDoc+"]"), 0o600))
	invalid := filepath.Join(dir, "invalid.json")
	require.Nil(t, os.WriteFile(invalid, []byte(`{"@id":`), 0o600))

	all := []string{spaceID, sensorID, floorID, roomID}

	cases := []struct {
		desc     string
		args     []string
		logType  outputLog
		contains []string
		models   []string
	}{
		{
			desc:     "get all models",
			args:     []string{"get", "all", "-r"},
			logType:  entityLog,
			contains: []string{spaceID, sensorID, floorID, roomID},
			models:   all,
		},
		{
			desc:     "get model",
			args:     []string{"get", roomID, "-r"},
			logType:  entityLog,
			contains: []string{roomID, "temperature", "sensor"},
			models:   all,
		},
		{
			desc:    "get unknown model",
			args:    []string{"get", "dtmi:example:Nothing;1"},
			logType: errLog,
			models:  all,
		},
		{
			desc:     "get model document",
			args:     []string{"document", floorID, "-r"},
			logType:  entityLog,
			contains: []string{floorID, "level"},
			models:   all,
		},
		{
			desc:    "get unknown model document",
			args:    []string{"document", "dtmi:example:Nothing;1"},
			logType: errLog,
			models:  all,
		},
		{
			desc:     "upload model file",
			args:     []string{"upload", single, "-r"},
			logType:  entityLog,
			contains: []string{"dtmi:example:Kitchen;1"},
			models:   append([]string{"dtmi:example:Kitchen;1"}, all...),
		},
		{
			desc:     "upload model array file",
			args:     []string{"upload", array, "-r"},
			logType:  entityLog,
			contains: []string{"dtmi:example:Kitchen;1"},
			models:   append([]string{"dtmi:example:Kitchen;1"}, all...),
		},
		{
			desc:    "upload invalid model file",
			args:    []string{"upload", invalid},
			logType: errLog,
			models:  all,
		},
		{
			desc:    "upload missing model file",
			args:    []string{"upload", filepath.Join(dir, "missing.json")},
			logType: errLog,
			models:  all,
		},
		{
			desc:    "delete referenced model",
			args:    []string{"delete", spaceID},
			logType: errLog,
			models:  all,
		},
		{
			desc:    "delete model",
			args:    []string{"delete", floorID},
			logType: okLog,
			models:  []string{spaceID, sensorID, roomID},
		},
		{
			desc:     "delete all models",
			args:     []string{"delete", "all", "-r"},
			logType:  entityLog,
			contains: []string{spaceID, roomID},
			models:   nil,
		},
		{
			desc:     "upload order",
			args:     []string{"order", roomID, spaceID, "-r"},
			logType:  entityLog,
			contains: []string{`["` + spaceID + `","` + roomID + `"]`},
			models:   all,
		},
		{
			desc:    "upload order without models",
			args:    []string{"order"},
			logType: usageLog,
			models:  all,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			store := newService(t)
			cmd := setFlags(cli.NewModelsCmd())
			out := executeCommand(t, cmd, tc.args...)
			checkOutput(t, tc.desc, out, tc.logType, tc.contains...)
			assert.ElementsMatch(t, tc.models, store.Models(), tc.desc)
		})
	}
}

func TestConfigCmd(t *testing.T) {
	cases := []struct {
		desc    string
		args    []string
		logType outputLog
		key     string
		value   any
	}{
		{
			desc:    "set store url",
			args:    []string{"store_url", "https://twins.example.com"},
			logType: okLog,
			key:     "remotes.store_url",
			value:   "https://twins.example.com",
		},
		{
			desc:    "set invalid store url",
			args:    []string{"store_url", "twins.example.com"},
			logType: errLog,
			key:     "remotes.store_url",
			value:   "http://localhost",
		},
		{
			desc:    "set tls verification",
			args:    []string{"tls_verification", "true"},
			logType: okLog,
			key:     "remotes.tls_verification",
			value:   true,
		},
		{
			desc:    "set token",
			args:    []string{"token", "secret"},
			logType: okLog,
			key:     "token",
			value:   "secret",
		},
		{
			desc:    "set output format",
			args:    []string{"format", "yaml"},
			logType: okLog,
			key:     "output.format",
			value:   "yaml",
		},
		{
			desc:    "set unknown key",
			args:    []string{"unknown", "value"},
			logType: errLog,
		},
		{
			desc:    "set without value",
			args:    []string{"token"},
			logType: usageLog,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cli.ConfigPath = filepath.Join(t.TempDir(), "config.toml")
			t.Cleanup(func() {
				cli.ConfigPath = ""
				cli.Format = "json"
				cli.RawOutput = false
			})
			_, err := cli.ParseConfig(sdk.Config{URL: "http://localhost"})
			require.Nil(t, err, "unexpected error parsing config")

			cmd := setFlags(cli.NewConfigCmd())
			out := executeCommand(t, cmd, tc.args...)
			checkOutput(t, tc.desc, out, tc.logType)
			if tc.key == "" {
				return
			}

			tree, err := toml.LoadFile(cli.ConfigPath)
			require.Nil(t, err, "unexpected error reading config")
			assert.Equal(t, tc.value, tree.Get(tc.key), tc.desc)
		})
	}
}

func TestParseConfig(t *testing.T) {
	cli.ConfigPath = filepath.Join(t.TempDir(), "config.toml")
	t.Cleanup(func() {
		cli.ConfigPath = ""
		cli.Format = "json"
		cli.RawOutput = false
	})

	conf, err := cli.ParseConfig(sdk.Config{URL: "http://localhost:8080", Token: "flag-token"})
	require.Nil(t, err, "unexpected error creating config")
	assert.Equal(t, "http://localhost:8080", conf.URL)
	assert.Equal(t, "flag-token", conf.Token)
	_, err = os.Stat(cli.ConfigPath)
	assert.Nil(t, err, "config file should be created")

	data := strings.Join([]string{
		"token = \"file-token\"",
		"[remotes]",
		"store_url = \"https://twins.example.com\"",
		"api_version = \"2023-10-31\"",
		"tls_verification = true",
		"[output]",
		"raw = \"true\"",
		"format = \"yaml\"",
	}, "\n")
	require.Nil(t, os.WriteFile(cli.ConfigPath, []byte(data), 0o600))

	conf, err = cli.ParseConfig(sdk.Config{URL: "http://localhost:8080"})
	require.Nil(t, err, "unexpected error parsing config")
	assert.Equal(t, "https://twins.example.com", conf.URL)
	assert.Equal(t, "2023-10-31", conf.APIVersion)
	assert.True(t, conf.TLSVerification)
	assert.Equal(t, "file-token", conf.Token)
	assert.True(t, cli.RawOutput)
	assert.Equal(t, "yaml", cli.Format)

	require.Nil(t, os.WriteFile(cli.ConfigPath, []byte("[output]\nraw = \"maybe\"\n"), 0o600))
	_, err = cli.ParseConfig(sdk.Config{})
	assert.NotNil(t, err, "expected error for invalid raw flag")
}

func TestNewClient(t *testing.T) {
	cases := []struct {
		desc  string
		mode  string
		calls int
		err   error
	}{
		{desc: "default is uncached", mode: "", calls: 2},
		{desc: "uncached", mode: "none", calls: 2},
		{desc: "in-process cache", mode: "memory", calls: 1},
		{desc: "redis cache", mode: "redis", err: twins.ErrCacheMode},
		{desc: "unknown cache", mode: "disk", err: twins.ErrCacheMode},
	}

	for _, tc := range cases {
		store := mocks.NewStore(0)
		client, err := cli.NewClient(store, tc.mode)
		assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
		if tc.err != nil {
			continue
		}
		for i := 0; i < 2; i++ {
			_, err := client.Models(context.Background(), false)
			require.Nil(t, err, tc.desc)
		}
		assert.Equal(t, tc.calls, store.Calls(mocks.OpListModels), tc.desc)
	}
}

func TestVersionCmd(t *testing.T) {
	out := executeCommand(t, cli.NewVersionCmd())
	assert.Contains(t, out, "version")
}
