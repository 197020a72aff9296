// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package statslogger periodically records the diskfile counters, along with memory and
// goroutine usage, in the log.
package statslogger

import (
	"runtime"
	"time"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/logger"
	"github.com/NVIDIA/swiftfs/stats"
	"github.com/NVIDIA/swiftfs/transitions"
)

const (
	defaultStatsLogPeriod = 10 * time.Minute
	goroutineSamplePeriod = time.Second
)

type globalsStruct struct {
	sampleChan     <-chan time.Time // time to sample the goroutine count
	logChan        <-chan time.Time // time to log statistics
	stopChan       chan bool        // time to shutdown and go home
	doneChan       chan bool        // shutdown complete
	statsLogPeriod time.Duration    // time between statistics logging (0 == disabled)
	sampleTicker   *time.Ticker
	logTicker      *time.Ticker
	running        bool
}

var globals globalsStruct

func init() {
	transitions.Register("statslogger", &globals)
}

func parseConfMap(confMap conf.ConfMap) (err error) {
	globals.statsLogPeriod, err = confMap.FetchOptionValueDuration("StatsLogger", "Period")
	if nil != err {
		globals.statsLogPeriod = defaultStatsLogPeriod // [StatsLogger]Period is optional
	}

	// statsLogPeriod must be >= 1 sec, except 0 means disabled
	if (globals.statsLogPeriod < time.Second) && (0 != globals.statsLogPeriod) {
		logger.Warnf("config variable 'StatsLogger.Period' value is non-zero and less then 1 sec; defaulting to '%v'", defaultStatsLogPeriod)
		globals.statsLogPeriod = defaultStatsLogPeriod
	}

	err = nil
	return
}

func start() {
	if 0 == globals.statsLogPeriod {
		return
	}

	globals.sampleTicker = time.NewTicker(goroutineSamplePeriod)
	globals.sampleChan = globals.sampleTicker.C

	globals.logTicker = time.NewTicker(globals.statsLogPeriod)
	globals.logChan = globals.logTicker.C

	globals.stopChan = make(chan bool)
	globals.doneChan = make(chan bool)

	globals.running = true

	go statsLogger()
}

func stop() {
	if !globals.running {
		return
	}

	globals.stopChan <- true
	_ = <-globals.doneChan

	globals.sampleTicker.Stop()
	globals.logTicker.Stop()

	globals.running = false
}

func (dummy *globalsStruct) Up(confMap conf.ConfMap) (err error) {
	err = parseConfMap(confMap)
	if nil != err {
		return
	}

	start()

	return
}

// Signaled restarts the logger if [StatsLogger]Period changed.
func (dummy *globalsStruct) Signaled(confMap conf.ConfMap) (err error) {
	oldLogPeriod := globals.statsLogPeriod

	err = parseConfMap(confMap)
	if nil != err {
		return
	}

	if globals.statsLogPeriod == oldLogPeriod {
		return
	}

	logger.Infof("statslogger log period changing from %v to %v", oldLogPeriod, globals.statsLogPeriod)

	stop()
	start()

	return
}

func (dummy *globalsStruct) Down(confMap conf.ConfMap) (err error) {
	stop()
	return
}

// statsLogger samples the goroutine count every sampleChan tick and logs a batch of
// statistics every logChan tick ([StatsLogger]Period), plus once more on the way out.
func statsLogger() {
	var (
		goroutineStats SimpleStats
		oldStatsMap    map[string]uint64
		newStatsMap    map[string]uint64
		deltaStatsMap  map[string]uint64
		oldMemStats    runtime.MemStats
		newMemStats    runtime.MemStats
	)

	goroutineStats.Clear()
	goroutineStats.Sample(int64(runtime.NumGoroutine()))

	// memstats "stops the world"
	oldStatsMap = stats.Dump()
	runtime.ReadMemStats(&oldMemStats)

	logStats("total", &goroutineStats, &oldMemStats, oldStatsMap)

mainloop:
	for stopRequest := false; !stopRequest; {
		select {
		case <-globals.stopChan:
			// print final stats and then exit
			stopRequest = true

		case <-globals.sampleChan:
			goroutineStats.Sample(int64(runtime.NumGoroutine()))
			continue mainloop

		case <-globals.logChan:
			// fall through to do the logging
		}

		newStatsMap = stats.Dump()
		runtime.ReadMemStats(&newMemStats)

		goroutineStats.Sample(int64(runtime.NumGoroutine()))

		logStats("total", &goroutineStats, &newMemStats, newStatsMap)

		deltaStatsMap = make(map[string]uint64, len(newStatsMap))
		for statName, value := range newStatsMap {
			deltaStatsMap[statName] = value - oldStatsMap[statName]
		}
		deltaMemStats := memStatsDelta(&oldMemStats, &newMemStats)
		logStats("delta", nil, &deltaMemStats, deltaStatsMap)

		oldMemStats = newMemStats
		oldStatsMap = newStatsMap

		goroutineStats.Clear()
	}

	globals.doneChan <- true
}

func memStatsDelta(oldMemStats *runtime.MemStats, newMemStats *runtime.MemStats) (deltaMemStats runtime.MemStats) {
	deltaMemStats.Sys = newMemStats.Sys - oldMemStats.Sys
	deltaMemStats.TotalAlloc = newMemStats.TotalAlloc - oldMemStats.TotalAlloc
	deltaMemStats.HeapInuse = newMemStats.HeapInuse - oldMemStats.HeapInuse
	deltaMemStats.HeapIdle = newMemStats.HeapIdle - oldMemStats.HeapIdle
	deltaMemStats.HeapReleased = newMemStats.HeapReleased - oldMemStats.HeapReleased
	deltaMemStats.StackSys = newMemStats.StackSys - oldMemStats.StackSys
	deltaMemStats.GCSys = newMemStats.GCSys - oldMemStats.GCSys
	deltaMemStats.NumGC = newMemStats.NumGC - oldMemStats.NumGC
	deltaMemStats.PauseTotalNs = newMemStats.PauseTotalNs - oldMemStats.PauseTotalNs
	return
}

// logStats writes interesting statistics to the log in a semi-human readable format.
//
// statsType is "total" or "delta" indicating whether statsMap and memStats are absolute
// or relative to the previous sample; goroutineStats may be nil.
func logStats(statsType string, goroutineStats *SimpleStats, memStats *runtime.MemStats, statsMap map[string]uint64) {
	if nil != goroutineStats {
		logger.Infof("Goroutines: min=%d mean=%d max=%d samples=%d",
			goroutineStats.Min(), goroutineStats.Mean(), goroutineStats.Max(), goroutineStats.Samples())
	}

	logger.Infof("Memory in Kibyte (%s): Sys=%d StackSys=%d GCSys=%d HeapInuse=%d HeapIdle=%d HeapReleased=%d Cumulative TotalAlloc=%d",
		statsType,
		int64(memStats.Sys)/1024, int64(memStats.StackSys)/1024, int64(memStats.GCSys)/1024,
		int64(memStats.HeapInuse)/1024, int64(memStats.HeapIdle)/1024,
		int64(memStats.HeapReleased)/1024, int64(memStats.TotalAlloc)/1024)
	logger.Infof("GC Stats (%s): NumGC=%d PauseTotalMsec=%d",
		statsType, memStats.NumGC, memStats.PauseTotalNs/1000000)

	// All object modifications (data, metadata or marker puts and unlinks) as ModifyOps
	modifyOps := statsMap[stats.DiskFilePutOps] + statsMap[stats.DiskFilePutMetadataOps] +
		statsMap[stats.DiskFilePutMarkerOps] + statsMap[stats.DiskFileUnlinkOps]

	logger.Infof("DiskFile Ops (%s): ModifyOps=%d Put=%d PutBytes=%d PutMetadata=%d PutMarker=%d Unlink=%d UnlinkRefused=%d Read=%d ReadBytes=%d",
		statsType, modifyOps,
		statsMap[stats.DiskFilePutOps], statsMap[stats.DiskFilePutBytes],
		statsMap[stats.DiskFilePutMetadataOps], statsMap[stats.DiskFilePutMarkerOps],
		statsMap[stats.DiskFileUnlinkOps], statsMap[stats.DiskFileUnlinkRefused],
		statsMap[stats.DiskFileReadOps], statsMap[stats.DiskFileReadBytes])
	logger.Infof("DiskFile Repairs (%s): Metadata=%d Size=%d",
		statsType, statsMap[stats.DiskFileMetadataRepairs], statsMap[stats.DiskFileSizeRepairs])
}
