// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statLabel = "stat"
)

func (ms MultipleStat) findStatStrings() (ops *string, bytes *string) {
	switch ms {
	case DiskFilePut:
		ops = &DiskFilePutOps
		bytes = &DiskFilePutBytes
	case DiskFileRead:
		ops = &DiskFileReadOps
		bytes = &DiskFileReadBytes
	}
	return
}

func newCounters(namespace string) (registry *prometheus.Registry, counters *prometheus.CounterVec) {
	registry = prometheus.NewRegistry()
	counters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Accumulated increments of each named stat.",
		},
		[]string{statLabel},
	)
	registry.MustRegister(counters)
	return
}

func incrementSomething(statName *string, incBy uint64) {
	if (nil == statName) || (0 == incBy) {
		return
	}

	globals.RLock()
	counters := globals.counters
	globals.RUnlock()

	counters.WithLabelValues(*statName).Add(float64(incBy))
}

func dump() (statMap map[string]uint64) {
	statMap = make(map[string]uint64)

	metricFamilies, err := Registry().Gather()
	if nil != err {
		return
	}

	for _, metricFamily := range metricFamilies {
		for _, metric := range metricFamily.GetMetric() {
			for _, labelPair := range metric.GetLabel() {
				if statLabel == labelPair.GetName() {
					statMap[labelPair.GetValue()] = uint64(metric.GetCounter().GetValue())
				}
			}
		}
	}

	return
}
