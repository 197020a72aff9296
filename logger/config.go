// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/NVIDIA/swiftfs/conf"
)

type globalsStruct struct {
	sync.Mutex
	logFile     *os.File
	logToStderr bool
	logTargets  []io.Writer
}

var globals globalsStruct

// Up configures the logrus standard logger from the [Logging] section of confMap.
//
// Package transitions calls this ahead of every other registered package.
func Up(confMap conf.ConfMap) (err error) {
	log.SetFormatter(&log.TextFormatter{DisableColors: true})

	globals.Lock()
	defer globals.Unlock()

	// Fetch log file info, if provided
	logFilePath, _ := confMap.FetchOptionValueString("Logging", "LogFilePath")
	if logFilePath != "" {
		globals.logFile, err = os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Errorf("couldn't open log file: %v", err)
			return err
		}
	}

	// Determine whether we should log to console. Default is false, unless
	// no log file was given in which case we accept the default of stderr.
	logToConsole, err := confMap.FetchOptionValueBool("Logging", "LogToConsole")
	if err != nil {
		logToConsole = false
	}
	globals.logToStderr = (nil == globals.logFile) || logToConsole

	setOutputLocked()

	err = applyLevelSettings(confMap)

	return
}

// Signaled re-applies the trace and debug level settings from confMap
func Signaled(confMap conf.ConfMap) (err error) {
	return applyLevelSettings(confMap)
}

// Down closes the log file opened by Up, if any, and reverts output to stderr
func Down(confMap conf.ConfMap) (err error) {
	globals.Lock()
	defer globals.Unlock()

	if nil != globals.logFile {
		err = globals.logFile.Close()
		globals.logFile = nil
	}
	globals.logToStderr = true
	globals.logTargets = nil
	setOutputLocked()

	return
}

func applyLevelSettings(confMap conf.ConfMap) (err error) {
	traceConfSlice, _ := confMap.FetchOptionValueStringSlice("Logging", "TraceLevelLogging")
	setTraceLoggingLevel(traceConfSlice)

	debugConfSlice, _ := confMap.FetchOptionValueStringSlice("Logging", "DebugLevelLogging")
	setDebugLoggingLevel(debugConfSlice)

	// Loggers handed out by PackageLogger() are plain logrus entries, so Debug
	// output from them is governed by the logrus level.
	if debugLevelEnabled {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	return nil
}

func setOutputLocked() {
	writers := make([]io.Writer, 0, 2+len(globals.logTargets))
	if nil != globals.logFile {
		writers = append(writers, globals.logFile)
	}
	if globals.logToStderr {
		writers = append(writers, os.Stderr)
	}
	writers = append(writers, globals.logTargets...)

	if 1 == len(writers) {
		log.SetOutput(writers[0])
	} else {
		log.SetOutput(io.MultiWriter(writers...))
	}
}

func addLogTarget(writer io.Writer) {
	globals.Lock()
	globals.logTargets = append(globals.logTargets, writer)
	setOutputLocked()
	globals.Unlock()
}
