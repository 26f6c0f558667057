// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/pkg/sdk"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

type remotes struct {
	StoreURL        string `toml:"store_url"`
	APIVersion      string `toml:"api_version"`
	TLSVerification bool   `toml:"tls_verification"`
}

type output struct {
	Raw    string `toml:"raw"`
	Format string `toml:"format"`
}

type config struct {
	Remotes remotes `toml:"remotes"`
	Output  output  `toml:"output"`
	Token   string  `toml:"token"`
}

// Readable by all user groups but writeable by the user only.
const filePermission = 0o644

var (
	errReadFail            = errors.New("failed to read config file")
	errNoKey               = errors.New("no such key")
	errUnsupportedKeyValue = errors.New("unsupported data type for key")
	errWritingConfig       = errors.New("error in writing the updated config to file")
	errInvalidURL          = errors.New("invalid url")
	defaultConfigPath      = "./config.toml"
)

func read(file string) (config, error) {
	c := config{}
	data, err := os.ReadFile(file)
	if err != nil {
		return c, errors.Wrap(errReadFail, err)
	}

	if err := toml.Unmarshal(data, &c); err != nil {
		return config{}, errors.Wrap(errReadFail, err)
	}

	return c, nil
}

// ParseConfig reads the config file into the store client settings. A
// missing file is created with default values.
func ParseConfig(conf sdk.Config) (sdk.Config, error) {
	if ConfigPath == "" {
		ConfigPath = defaultConfigPath
	}

	_, err := os.Stat(ConfigPath)
	switch {
	case os.IsNotExist(err):
		defaultConfig := config{
			Remotes: remotes{
				StoreURL:        conf.URL,
				APIVersion:      sdk.DefaultAPIVersion,
				TLSVerification: conf.TLSVerification,
			},
			Output: output{Format: jsonFormat},
		}
		buf, err := toml.Marshal(defaultConfig)
		if err != nil {
			return conf, err
		}
		if err = os.WriteFile(ConfigPath, buf, filePermission); err != nil {
			return conf, errors.Wrap(errWritingConfig, err)
		}
	case err != nil:
		return conf, err
	}

	c, err := read(ConfigPath)
	if err != nil {
		return conf, err
	}

	if c.Output.Raw != "" {
		raw, err := strconv.ParseBool(c.Output.Raw)
		if err != nil {
			return conf, err
		}
		RawOutput = raw
	}
	if c.Output.Format != "" {
		Format = c.Output.Format
	}

	if c.Remotes.StoreURL != "" {
		conf.URL = c.Remotes.StoreURL
	}
	if c.Remotes.APIVersion != "" {
		conf.APIVersion = c.Remotes.APIVersion
	}
	conf.TLSVerification = c.Remotes.TLSVerification
	if c.Token != "" {
		conf.Token = c.Token
	}

	return conf, nil
}

// NewConfigCmd returns config command storing params to the local TOML
// file.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> <value>",
		Short: "CLI local config",
		Long:  "Local param storage to prevent repetitive passing of keys",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			if err := setConfigValue(args[0], args[1]); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logOKCmd(*cmd)
		},
	}
}

func setConfigValue(key, value string) error {
	c, err := read(ConfigPath)
	if err != nil {
		return err
	}

	if strings.Contains(key, "url") {
		u, err := url.Parse(value)
		if err != nil {
			return errors.Wrap(errInvalidURL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Wrap(errInvalidURL, errors.New(value))
		}
	}

	configKeyToField := map[string]interface{}{
		"store_url":        &c.Remotes.StoreURL,
		"api_version":      &c.Remotes.APIVersion,
		"tls_verification": &c.Remotes.TLSVerification,
		"raw_output":       &c.Output.Raw,
		"format":           &c.Output.Format,
		"token":            &c.Token,
	}

	fieldPtr, ok := configKeyToField[key]
	if !ok {
		return errors.Wrap(errNoKey, errors.New(key))
	}

	switch ptr := fieldPtr.(type) {
	case *string:
		*ptr = value
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrap(errUnsupportedKeyValue, err)
		}
		*ptr = b
	default:
		return errors.Wrap(errUnsupportedKeyValue, errors.New(key))
	}

	buf, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(ConfigPath, buf, filePermission); err != nil {
		return errors.Wrap(errWritingConfig, err)
	}

	return nil
}
