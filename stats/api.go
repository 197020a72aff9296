// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package stats provides a simple named-counter API backed by a private Prometheus registry.
//
// Counters are identified by name (e.g. "diskfile.put.operations") and exported as the
// single CounterVec <[Stats]Namespace>_operations_total labelled by that name.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

type MultipleStat int

const (
	DiskFilePut  MultipleStat = iota // uses operations and bytes stats
	DiskFileRead                     // uses operations and bytes stats
)

// Dump returns a map of all accumulated stats since the last Up().
//
//   Key   is a string containing the name of the stat
//   Value is the accumulation of all increments for the stat
func Dump() (statMap map[string]uint64) {
	statMap = dump()
	return
}

// IncrementOperations increments the named counter by one.
func IncrementOperations(statName *string) {
	incrementSomething(statName, 1)
}

// IncrementOperationsBy increments the named counter by <incBy>.
func IncrementOperationsBy(statName *string, incBy uint64) {
	incrementSomething(statName, incBy)
}

// IncrementOperationsAndBytes increments stat's .operations by one and its .bytes by <bytes>.
func IncrementOperationsAndBytes(stat MultipleStat, bytes uint64) {
	opsStat, bytesStat := stat.findStatStrings()
	incrementSomething(opsStat, 1)
	incrementSomething(bytesStat, bytes)
}

// Registry returns the registry holding the counters, e.g. for exposition by an embedding service.
func Registry() (registry *prometheus.Registry) {
	globals.RLock()
	registry = globals.registry
	globals.RUnlock()
	return
}
