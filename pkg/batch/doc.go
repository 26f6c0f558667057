// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package batch runs an action over a list of items with a bounded number
// of actions in flight, reporting progress and requesting periodic refreshes
// of whatever the actions are populating.
package batch
