// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package graph loads twins and their relationships into a canvas and keeps
// the canvas consistent with the backend across refreshes.
package graph
