// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package statslogger

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/logger"
	"github.com/NVIDIA/swiftfs/stats"
	"github.com/NVIDIA/swiftfs/transitions"
)

func testSetup(t *testing.T, period string) (confMap conf.ConfMap, logTarget logger.LogTarget) {
	confMap, err := conf.MakeConfMapFromStrings([]string{
		"Logging.LogFilePath=/dev/null",
		"Logging.LogToConsole=false",
		"StatsLogger.Period=" + period,
	})
	require.NoError(t, err)

	err = transitions.Up(confMap)
	require.NoError(t, err)

	logTarget.Init(50)
	logger.AddLogTarget(logTarget)

	return
}

func TestSimpleStats(t *testing.T) {
	assert := assert.New(t)

	var simpleStats SimpleStats

	assert.Equal(int64(0), simpleStats.Mean())

	for _, count := range []int64{5, 2, 11} {
		simpleStats.Sample(count)
	}
	assert.Equal(int64(2), simpleStats.Min())
	assert.Equal(int64(11), simpleStats.Max())
	assert.Equal(int64(6), simpleStats.Mean())
	assert.Equal(int64(3), simpleStats.Samples())

	simpleStats.Clear()
	assert.Equal(int64(0), simpleStats.Samples())
	simpleStats.Sample(7)
	assert.Equal(int64(7), simpleStats.Min())
}

func TestLogStats(t *testing.T) {
	assert := assert.New(t)

	confMap, logTarget := testSetup(t, "0s")
	defer func() {
		assert.NoError(transitions.Down(confMap))
	}()

	assert.False(globals.running, "a zero period disables the logger")

	stats.IncrementOperationsAndBytes(stats.DiskFilePut, 100)
	stats.IncrementOperations(&stats.DiskFileUnlinkOps)
	stats.IncrementOperations(&stats.DiskFileMetadataRepairs)

	var (
		goroutineStats SimpleStats
		memStats       runtime.MemStats
	)
	goroutineStats.Sample(4)
	runtime.ReadMemStats(&memStats)

	logStats("total", &goroutineStats, &memStats, stats.Dump())

	assert.True(logTarget.Contains("Goroutines: min=4 mean=4 max=4 samples=1"))
	assert.True(logTarget.Contains("DiskFile Ops (total): ModifyOps=2 Put=1 PutBytes=100"))
	assert.True(logTarget.Contains("DiskFile Repairs (total): Metadata=1 Size=0"))
}

func TestPeriodicLogging(t *testing.T) {
	assert := assert.New(t)

	confMap, logTarget := testSetup(t, "1s")

	assert.True(globals.running)
	assert.Equal(time.Second, globals.statsLogPeriod)

	// The initial round is logged as soon as the logger starts
	assert.Eventually(func() bool {
		return logTarget.Contains("DiskFile Ops (total)")
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(func() bool {
		return logTarget.Contains("DiskFile Ops (delta)")
	}, 5*time.Second, 50*time.Millisecond)

	err := confMap.UpdateFromString("StatsLogger.Period=0s")
	assert.NoError(err)
	err = transitions.Signaled(confMap)
	assert.NoError(err)
	assert.False(globals.running)

	err = confMap.UpdateFromString("StatsLogger.Period=100ms")
	assert.NoError(err)
	err = transitions.Signaled(confMap)
	assert.NoError(err)
	assert.True(globals.running)
	assert.Equal(defaultStatsLogPeriod, globals.statsLogPeriod, "sub-second periods fall back to the default")

	err = transitions.Down(confMap)
	assert.NoError(err)
	assert.False(globals.running)
}
