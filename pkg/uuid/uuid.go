// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package uuid provides a UUID identity provider.
package uuid

import (
	twinexplorer "github.com/absmach/twinexplorer"
	"github.com/absmach/twinexplorer/pkg/errors"
	"github.com/gofrs/uuid"
)

// ErrGeneratingID indicates error in generating UUID.
var ErrGeneratingID = errors.New("failed to generate uuid")

var _ twinexplorer.IDProvider = (*uuidProvider)(nil)

type uuidProvider struct {
	prefix string
}

// New instantiates a UUID provider.
func New() twinexplorer.IDProvider {
	return &uuidProvider{}
}

// NewWithPrefix instantiates a UUID provider whose identifiers start with
// prefix. Generated twin ids read better in the graph with a short prefix.
func NewWithPrefix(prefix string) twinexplorer.IDProvider {
	return &uuidProvider{prefix: prefix}
}

func (up *uuidProvider) ID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(ErrGeneratingID, err)
	}

	return up.prefix + id.String(), nil
}
