// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the twin explorer command line interface.
package main

import (
	"log"
	"os"

	"github.com/absmach/twinexplorer/cli"
	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/graph"
	mglog "github.com/absmach/twinexplorer/logger"
	"github.com/absmach/twinexplorer/pkg/sdk"
	"github.com/absmach/twinexplorer/pkg/ulid"
	"github.com/absmach/twinexplorer/twins"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"
)

const defURL = "http://localhost:8080"

func main() {
	sdkConf := sdk.Config{
		URL:             defURL,
		TLSVerification: true,
	}
	logLevel := "error"
	cacheMode := string(twins.CacheNone)

	// Root
	rootCmd := &cobra.Command{
		Use: "twinexplorer-cli",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			format, raw := cli.Format, cli.RawOutput
			cfg, err := cli.ParseConfig(sdkConf)
			if err != nil {
				log.Fatalf("Failed to parse config: %s", err)
			}
			// Flags win over the config file.
			flags := cmd.Flags()
			if flags.Changed("store-url") {
				cfg.URL = sdkConf.URL
			}
			if flags.Changed("token") {
				cfg.Token = sdkConf.Token
			}
			if flags.Changed("output") {
				cli.Format = format
			}
			if flags.Changed("raw") {
				cli.RawOutput = raw
			}
			if token := os.Getenv("MG_EXPLORER_STORE_TOKEN"); token != "" && !flags.Changed("token") {
				cfg.Token = token
			}

			logger, err := mglog.New(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				log.Fatalf("Failed to init logger: %s", err)
			}
			store, err := sdk.NewStore(cfg)
			if err != nil {
				log.Fatalf("Failed to create store client: %s", err)
			}
			client, err := cli.NewClient(store, cacheMode)
			if err != nil {
				log.Fatalf("Failed to create store client: %s", err)
			}
			cli.SetService(explorer.New(client, graph.NewCanvas(nil), ulid.New(), logger))
		},
	}

	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		Example:  cc.Italic,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})

	// API commands
	rootCmd.AddCommand(cli.NewGraphCmd())
	rootCmd.AddCommand(cli.NewTwinsCmd())
	rootCmd.AddCommand(cli.NewRelationshipsCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	// Root Flags
	rootCmd.PersistentFlags().StringVarP(
		&sdkConf.URL,
		"store-url",
		"s",
		sdkConf.URL,
		"Twin store URL",
	)

	rootCmd.PersistentFlags().StringVar(
		&sdkConf.Token,
		"token",
		"",
		"Twin store access token",
	)

	rootCmd.PersistentFlags().StringVar(
		&cli.ConfigPath,
		"config",
		"",
		"Config path",
	)

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
		"Output format: json or yaml",
	)

	rootCmd.PersistentFlags().StringVar(
		&cacheMode,
		"cache",
		cacheMode,
		"Listing cache: none or memory",
	)

	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		logLevel,
		"Log level",
	)

	// Graph Flags
	rootCmd.PersistentFlags().StringVarP(
		&cli.Direction,
		"direction",
		"d",
		cli.Direction,
		"Relationship direction: outgoing, incoming or all",
	)

	rootCmd.PersistentFlags().IntVarP(
		&cli.Levels,
		"levels",
		"l",
		cli.Levels,
		"Relationship expansion levels",
	)

	rootCmd.PersistentFlags().BoolVar(
		&cli.Eager,
		"eager",
		false,
		"Load relationship endpoints missing from the graph",
	)

	rootCmd.PersistentFlags().BoolVar(
		&cli.Clear,
		"clear",
		false,
		"Remove what the store no longer returns",
	)

	rootCmd.PersistentFlags().IntVarP(
		&cli.Concurrency,
		"concurrency",
		"c",
		cli.Concurrency,
		"Relationship requests in flight",
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

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
