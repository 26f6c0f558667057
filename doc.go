// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package twinexplorer contains the types shared by the twin graph explorer
// services: identifier providers, HTTP response contract and health
// reporting.
package twinexplorer
