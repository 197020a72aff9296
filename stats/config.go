// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/transitions"
)

const (
	defaultNamespace = "swiftfs"
)

type globalsStruct struct {
	sync.RWMutex //                       Protects swapping registry & counters on Up()
	namespace    string
	registry     *prometheus.Registry
	counters     *prometheus.CounterVec
}

var globals globalsStruct

func init() {
	// Counters are usable before Up() so that packages may count from their own init()
	globals.namespace = defaultNamespace
	globals.registry, globals.counters = newCounters(globals.namespace)

	transitions.Register("stats", &globals)
}

func (dummy *globalsStruct) Up(confMap conf.ConfMap) (err error) {
	var (
		namespace string
	)

	namespace, err = confMap.FetchOptionValueString("Stats", "Namespace")
	if nil != err {
		namespace = defaultNamespace // [Stats]Namespace is optional
	}
	if !prometheusNameOK(namespace) {
		err = fmt.Errorf("[Stats]Namespace \"%s\" is not a valid metric name prefix", namespace)
		return
	}

	globals.Lock()
	globals.namespace = namespace
	globals.registry, globals.counters = newCounters(namespace)
	globals.Unlock()

	err = nil
	return
}

func (dummy *globalsStruct) Signaled(confMap conf.ConfMap) (err error) {
	return nil
}

func (dummy *globalsStruct) Down(confMap conf.ConfMap) (err error) {
	// Counters remain readable via Dump() until the next Up()
	err = nil
	return
}

func prometheusNameOK(namespace string) bool {
	if 0 == len(namespace) {
		return false
	}
	for i, r := range namespace {
		switch {
		case ('a' <= r) && (r <= 'z'):
		case ('A' <= r) && (r <= 'Z'):
		case '_' == r:
		case ('0' <= r) && (r <= '9') && (0 < i):
		default:
			return false
		}
	}
	return true
}
