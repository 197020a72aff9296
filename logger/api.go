// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package logger provides logging wrappers
//
// These wrappers allow us to standardize logging while still using a third-party
// logging package.
//
// This package is currently implemented on top of the sirupsen/logrus package:
//   https://github.com/sirupsen/logrus
//
// The package-level APIs here add package and calling function to all logs.
// Components that take their logger as a dependency (e.g. diskfile.Manager) get a
// logrus.FieldLogger from PackageLogger() instead.
//
// Logging of trace and debug logs are enabled/disabled on a per package basis.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/NVIDIA/swiftfs/utils"
)

type Level int

// Our logging levels - These are the different logging levels supported by this package.
//
// We have more detailed logging levels than the logrus log package.
// As a result, when we do our logging we need to map from our levels
// to the logrus ones before calling logrus APIs.
const (
	// PanicLevel corresponds to logrus.PanicLevel; Logrus will log and then call panic with the log message
	PanicLevel Level = iota
	// FatalLevel corresponds to logrus.FatalLevel; Logrus will log and then calls `os.Exit(1)`.
	FatalLevel
	// ErrorLevel corresponds to logrus.ErrorLevel
	ErrorLevel
	// WarnLevel corresponds to logrus.WarnLevel
	WarnLevel
	// InfoLevel corresponds to logrus.InfoLevel
	InfoLevel

	// TraceLevel is used for operational logs that trace success path through the application.
	// Whether these are logged is controlled on a per-package basis by [Logging]TraceLevelLogging.
	// When enabled, these are logged at logrus.InfoLevel.
	TraceLevel

	// DebugLevel is used for very verbose logging. Whether these are logged is controlled
	// on a per-package basis by [Logging]DebugLevelLogging.
	// When enabled, these are logged at logrus.DebugLevel.
	DebugLevel
)

// Enable/disable for trace and debug levels.
// These are defaulted to disabled unless otherwise specified in .conf file
var traceLevelEnabled = false
var debugLevelEnabled = false

var settingsLock sync.RWMutex

// packageTraceSettings controls whether tracing is enabled for particular packages.
//
// Note: In order to enable tracing for a package using the "Logging.TraceLevelLogging"
// config variable, the package must be in this map.
//
var packageTraceSettings = map[string]bool{
	"diskfile":    false,
	"halter":      false,
	"logger":      false,
	"metastore":   false,
	"stats":       false,
	"transitions": false,
}

// packageDebugSettings plays the same role as packageTraceSettings for DebugLevel.
var packageDebugSettings = map[string]bool{
	"diskfile":  false,
	"metastore": false,
}

func setTraceLoggingLevel(confStrSlice []string) {
	settingsLock.Lock()
	traceLevelEnabled = applyPackageSettings(packageTraceSettings, confStrSlice)
	enabled := traceLevelEnabled
	settingsLock.Unlock()

	if enabled {
		for _, pkg := range confStrSlice {
			Infof("Package %v trace logging is enabled.", pkg)
		}
	}
}

func setDebugLoggingLevel(confStrSlice []string) {
	settingsLock.Lock()
	debugLevelEnabled = applyPackageSettings(packageDebugSettings, confStrSlice)
	settingsLock.Unlock()
}

func applyPackageSettings(settings map[string]bool, confStrSlice []string) (anyEnabled bool) {
	for pkg := range settings {
		settings[pkg] = false
	}

HandlePkgs:
	for _, pkg := range confStrSlice {
		switch pkg {
		case "none":
			for p := range settings {
				settings[p] = false
			}
			anyEnabled = false
			break HandlePkgs
		default:
			if _, ok := settings[pkg]; ok {
				settings[pkg] = true
				anyEnabled = true
			}
		}
	}

	return
}

// TraceEnabled reports whether trace logging is enabled for pkg
func TraceEnabled(pkg string) bool {
	settingsLock.RLock()
	defer settingsLock.RUnlock()
	return traceLevelEnabled && packageTraceSettings[pkg]
}

// DebugEnabled reports whether debug logging is enabled for pkg
func DebugEnabled(pkg string) bool {
	settingsLock.RLock()
	defer settingsLock.RUnlock()
	return debugLevelEnabled && packageDebugSettings[pkg]
}

// Log fields supported by logger:
const (
	packageKey  string = "package"
	functionKey string = "function"
	errorKey    string = "error"
	gidKey      string = "goroutine"
)

var backtraceOneLevel int = 1

// PackageLogger returns a logrus.FieldLogger tagged with pkg, suitable for injection
// into components that take their logging sink as a dependency.
func PackageLogger(pkg string) log.FieldLogger {
	return log.WithField(packageKey, pkg)
}

func newLogEntry(level int, err error) (entry *log.Entry, pkg string) {
	fn, pkg, gid := utils.GetFuncPackage(level + 1)

	fields := log.Fields{
		functionKey: fn,
		packageKey:  pkg,
		gidKey:      gid,
	}
	if nil != err {
		fields[errorKey] = err
	}

	entry = log.WithFields(fields)
	return
}

func emit(level Level, err error, logString string) {
	entry, pkg := newLogEntry(backtraceOneLevel+1, err)

	switch level {
	case PanicLevel:
		entry.Panic(logString)
	case FatalLevel:
		entry.Fatal(logString)
	case ErrorLevel:
		entry.Error(logString)
	case WarnLevel:
		entry.Warn(logString)
	case InfoLevel:
		entry.Info(logString)
	case TraceLevel:
		if TraceEnabled(pkg) {
			entry.Info(logString)
		}
	case DebugLevel:
		if DebugEnabled(pkg) {
			entry.Debug(logString)
		}
	}
}

// EXTERNAL logging APIs
// These APIs are in the style of those provided by the logrus package.

func Errorf(format string, args ...interface{}) {
	emit(ErrorLevel, nil, fmt.Sprintf(format, args...))
}

func Fatalf(format string, args ...interface{}) {
	emit(FatalLevel, nil, fmt.Sprintf(format, args...))
}

func Infof(format string, args ...interface{}) {
	emit(InfoLevel, nil, fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...interface{}) {
	if !traceLevelEnabled {
		return
	}
	emit(TraceLevel, nil, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...interface{}) {
	if !debugLevelEnabled {
		return
	}
	emit(DebugLevel, nil, fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	emit(WarnLevel, nil, fmt.Sprintf(format, args...))
}

func ErrorfWithError(err error, format string, args ...interface{}) {
	emit(ErrorLevel, err, fmt.Sprintf(format, args...))
}

func FatalfWithError(err error, format string, args ...interface{}) {
	emit(FatalLevel, err, fmt.Sprintf(format, args...))
}

func InfofWithError(err error, format string, args ...interface{}) {
	emit(InfoLevel, err, fmt.Sprintf(format, args...))
}

func PanicfWithError(err error, format string, args ...interface{}) {
	emit(PanicLevel, err, fmt.Sprintf(format, args...))
}

func WarnfWithError(err error, format string, args ...interface{}) {
	emit(WarnLevel, err, fmt.Sprintf(format, args...))
}

// AddLogTarget adds another target for log messages to be written to. writer is an
// object with an io.Writer interface that's called once for each log message.
//
// Logger.Up() must be called before this function is used.
//
func AddLogTarget(writer io.Writer) {
	addLogTarget(writer)
}

// LogBuffer holds the most recent log entries captured by a LogTarget
type LogBuffer struct {
	sync.Mutex
	LogEntries   []string // most recent log entry is [0]
	TotalEntries int      // count of all entries seen
}

// LogTarget is an example of a log target that captures the most recent n lines of
// log into an array. Useful for writing test cases.
type LogTarget struct {
	LogBuf *LogBuffer
}

// Init initializes a LogTarget to hold upto nEntry log entries.
func (log *LogTarget) Init(nEntry int) {
	log.LogBuf = &LogBuffer{TotalEntries: 0}
	log.LogBuf.LogEntries = make([]string, nEntry)
}

// Write is called by logger for each log entry
func (log LogTarget) Write(p []byte) (n int, err error) {
	entry := strings.TrimRight(string(p), " \t\n")

	log.LogBuf.Lock()
	defer log.LogBuf.Unlock()

	if 0 < len(log.LogBuf.LogEntries) {
		copy(log.LogBuf.LogEntries[1:], log.LogBuf.LogEntries[:len(log.LogBuf.LogEntries)-1])
		log.LogBuf.LogEntries[0] = entry
	}
	log.LogBuf.TotalEntries++

	return len(p), nil
}

// Contains reports whether any captured entry contains substr
func (log LogTarget) Contains(substr string) bool {
	log.LogBuf.Lock()
	defer log.LogBuf.Unlock()

	for _, entry := range log.LogBuf.LogEntries {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}
