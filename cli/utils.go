// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	// ConfigPath config path parameter.
	ConfigPath string = ""
	// RawOutput raw output mode.
	RawOutput bool = false
	// Format output format, json or yaml.
	Format string = jsonFormat
	// Direction relationship direction parameter.
	Direction string = "outgoing"
	// Levels expansion levels parameter.
	Levels int = 1
	// Eager eager loading parameter.
	Eager bool = false
	// Clear clear existing parameter.
	Clear bool = false
	// Concurrency relationship requests in flight.
	Concurrency int = 6
	// Progress prints load progress.
	Progress bool = false
	// Highlight twins highlighted after a load.
	Highlight []string = nil
	// Filter text rendered twins are filtered by after a load.
	Filter string = ""
)

var errFormat = errors.New("unsupported output format")

func logJSONCmd(cmd cobra.Command, iList ...interface{}) {
	for _, i := range iList {
		switch Format {
		case yamlFormat:
			if err := logYAMLCmd(cmd, i); err != nil {
				logErrorCmd(cmd, err)
				return
			}
			continue
		case jsonFormat, "":
		default:
			logErrorCmd(cmd, errors.Wrap(errFormat, errors.New(Format)))
			return
		}

		m, err := json.Marshal(i)
		if err != nil {
			logErrorCmd(cmd, err)
			return
		}

		if RawOutput {
			fmt.Fprintln(cmd.OutOrStdout(), string(m))
			continue
		}

		pj, err := prettyjson.Format(m)
		if err != nil {
			logErrorCmd(cmd, err)
			return
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
	}
}

// logYAMLCmd renders the JSON form of i as YAML, so field names match the
// JSON output.
func logYAMLCmd(cmd cobra.Command, i interface{}) error {
	m, err := json.Marshal(i)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(m, &v); err != nil {
		return err
	}
	y, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(y))

	return nil
}

func logUsageCmd(cmd cobra.Command, u string) {
	fmt.Fprintf(cmd.OutOrStdout(), color.YellowString("\nusage: %s\n\n"), u)
}

func logErrorCmd(cmd cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	boldRed.Fprintf(cmd.ErrOrStderr(), "\nerror: ")

	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n", color.RedString(err.Error()))
}

func logOKCmd(cmd cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", color.BlueString("ok"))
}

func logCreatedCmd(cmd cobra.Command, e string) {
	if RawOutput {
		fmt.Fprintln(cmd.OutOrStdout(), e)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), color.BlueString("\ncreated: %s\n\n"), e)
	}
}

func logProgressCmd(cmd cobra.Command, percent float64) {
	fmt.Fprintf(cmd.ErrOrStderr(), color.CyanString("loading: %5.1f%%\n"), percent)
}

func convertProperties(p string) (map[string]interface{}, error) {
	if p == "" {
		return nil, nil
	}
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(p), &props); err != nil {
		return nil, err
	}

	return props, nil
}
