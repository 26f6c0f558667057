// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package twins contains the twin and relationship domain types and the
// paged query client used to read them from a remote twin store.
//
// The remote store returns untyped records keyed by convention ($dtId,
// $sourceId, ...). Those records enter the package as Raw* types, are
// validated and are turned into Twin and Relationship values. Every paged
// resource is exposed through a callback invoked once per page.
package twins
