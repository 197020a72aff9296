// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package statslogger

// SimpleStats tracks the min, max and mean of a sampled count (the number of goroutines,
// which rises with requests blocked in the diskfile dispatcher) over one log period.
type SimpleStats struct {
	min     int64
	max     int64
	total   int64
	samples int64
}

func (simpleStats *SimpleStats) Clear() {
	*simpleStats = SimpleStats{}
}

func (simpleStats *SimpleStats) Sample(count int64) {
	if (0 == simpleStats.samples) || (count < simpleStats.min) {
		simpleStats.min = count
	}
	if count > simpleStats.max {
		simpleStats.max = count
	}
	simpleStats.total += count
	simpleStats.samples++
}

func (simpleStats *SimpleStats) Mean() int64 {
	if 0 == simpleStats.samples {
		return 0
	}
	return simpleStats.total / simpleStats.samples
}

func (simpleStats *SimpleStats) Min() int64 {
	return simpleStats.min
}

func (simpleStats *SimpleStats) Max() int64 {
	return simpleStats.max
}

func (simpleStats *SimpleStats) Samples() int64 {
	return simpleStats.samples
}
