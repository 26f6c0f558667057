// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package env loads service configuration from environment variables.
package env

import (
	"github.com/caarlos0/env/v7"
)

// Options narrows the lookup to a fixed environment or a key prefix.
type Options struct {
	// Environment replaces the process environment when set.
	Environment map[string]string

	// Prefix is prepended to every key.
	Prefix string
}

// Parse fills v from the environment using the given options.
func Parse(v interface{}, opts ...Options) error {
	altOpts := []env.Options{}

	for _, opt := range opts {
		altOpts = append(altOpts, env.Options{
			Environment: opt.Environment,
			Prefix:      opt.Prefix,
		})
	}

	return env.Parse(v, altOpts...)
}
