// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package ulid provides a ULID identity provider. Identifiers sort by
// creation time, which keeps relationship ids of a twin in creation order.
package ulid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/oklog/ulid/v2"
)

// ErrGeneratingID indicates error in generating ULID.
var ErrGeneratingID = errors.New("generating id failed")

var _ twinexplorer.IDProvider = (*ulidProvider)(nil)

type ulidProvider struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New instantiates a ULID provider. It is safe for concurrent use and ids
// generated within the same millisecond are strictly increasing.
func New() twinexplorer.IDProvider {
	return &ulidProvider{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (up *ulidProvider) ID() (string, error) {
	up.mu.Lock()
	defer up.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), up.entropy)
	if err != nil {
		return "", errors.Wrap(ErrGeneratingID, err)
	}

	return id.String(), nil
}
