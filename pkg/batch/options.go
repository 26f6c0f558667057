// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package batch

const (
	// DefaultConcurrency is the number of actions in flight when no
	// concurrency is configured.
	DefaultConcurrency = 6

	refreshFactor = 3
)

type config struct {
	concurrency  int
	refreshEvery int
	update       func(percent float64)
	refresh      func()
}

// Option configures a Run call.
type Option func(*config)

// WithConcurrency sets the maximum number of unresolved actions.
// Values lower than 1 are treated as 1.
func WithConcurrency(c int) Option {
	return func(cfg *config) {
		cfg.concurrency = c
	}
}

// WithRefreshEvery sets the refresh interval counted in started items.
// Defaults to three times the concurrency.
func WithRefreshEvery(r int) Option {
	return func(cfg *config) {
		cfg.refreshEvery = r
	}
}

// WithUpdate registers the progress callback. Percentages are in [0, 100].
func WithUpdate(update func(percent float64)) Option {
	return func(cfg *config) {
		cfg.update = update
	}
}

// WithRefresh registers the refresh callback.
func WithRefresh(refresh func()) Option {
	return func(cfg *config) {
		cfg.refresh = refresh
	}
}

func newConfig(opts ...Option) config {
	cfg := config{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	if cfg.refreshEvery < 1 {
		cfg.refreshEvery = refreshFactor * cfg.concurrency
	}
	if cfg.update == nil {
		cfg.update = func(float64) {}
	}
	if cfg.refresh == nil {
		cfg.refresh = func() {}
	}

	return cfg
}
