// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package twinexplorer

// IDProvider specifies an API for generating unique identifiers.
//
// It is used to name twins and relationships created from the explorer
// when the caller does not supply an identifier.
type IDProvider interface {
	// ID generates the unique identifier.
	ID() (string, error)
}
