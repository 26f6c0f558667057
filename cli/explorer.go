// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/absmach/twinexplorer/explorer"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/absmach/twinexplorer/twins"
)

// Keep explorer handle in global var.
var svc explorer.Service

// SetService sets the explorer service the commands run against.
func SetService(s explorer.Service) {
	svc = s
}

// NewClient creates the store client of a CLI run. Only the in-process
// cache is available since every run is a separate process.
func NewClient(store twins.Store, cacheMode string) (twins.Client, error) {
	mode, err := twins.ParseCacheMode(cacheMode)
	if err != nil {
		return nil, err
	}
	client := twins.NewClient(store)
	switch mode {
	case twins.CacheNone:
		return client, nil
	case twins.CacheMemory:
		return twins.NewCachedClient(client, twins.NewMemoryCache()), nil
	default:
		return nil, errors.Wrap(twins.ErrCacheMode, fmt.Errorf("%s cache is not available in the CLI", mode))
	}
}
