// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package utils provides miscellaneous utilities for swiftfs.
package utils

import (
	"bytes"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// PathToAcctContObj splits a Swift request path into its account, container and object parts.
//
// The object part keeps any embedded slashes; container and object are returned empty
// when the path stops short of them.
func PathToAcctContObj(path string) (accountName string, containerName string, objectName string, err error) {
	if !strings.HasPrefix(path, "/") {
		return "", "", "", fmt.Errorf("%q is not a valid Swift path", path)
	}
	//  0  1->          2->       3->
	//  v1/AUTH_account/container/object/possibly/including/slashes
	pathSplit := strings.SplitN(path[1:], "/", 4)
	if len(pathSplit) < 2 || "" == pathSplit[1] {
		return "", "", "", fmt.Errorf("%q is not a valid Swift path", path)
	}
	accountName = pathSplit[1]
	if len(pathSplit) == 2 {
		containerName = ""
		objectName = ""
	} else {
		containerName = pathSplit[2]
		if len(pathSplit) == 3 {
			objectName = ""
		} else {
			objectName = pathSplit[3]
		}
	}
	return accountName, containerName, objectName, nil
}

// GetGID returns the id of the calling goroutine.
//
// Logging the goroutine context is useful when untangling interleaved requests
// against the same device.
func GetGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

var (
	extractPkgFnName = regexp.MustCompile(`[^\/]*$`)
	extractPkgName   = regexp.MustCompile(`^[^.]*`)
	extractFnName    = regexp.MustCompile(`[^.]*$`)
)

// GetAFnName returns a string containing calling function and package
func GetAFnName(level int) string {
	// Get the PC and file for the level requested, adding one level to skip this function
	pc, _, _, _ := runtime.Caller(level + 1)
	functionObject := runtime.FuncForPC(pc)
	if nil == functionObject {
		return ""
	}
	// Just the package and function name (and not the module path)
	return extractPkgFnName.FindString(functionObject.Name())
}

// GetFuncPackage returns separate strings containing calling function and package
// along with the id of the calling goroutine
func GetFuncPackage(level int) (fn string, pkg string, gid uint64) {
	funcPkg := GetAFnName(level + 1)

	pkg = extractPkgName.FindString(funcPkg)
	fn = extractFnName.FindString(funcPkg)
	gid = GetGID()

	return fn, pkg, gid
}

type Stopwatch struct {
	StartTime   time.Time
	StopTime    time.Time
	ElapsedTime time.Duration
	IsRunning   bool
}

func NewStopwatch() *Stopwatch {
	return &Stopwatch{StartTime: time.Now(), IsRunning: true}
}

func (sw *Stopwatch) Stop() time.Duration {
	sw.StopTime = time.Now()

	// Stopwatch should have been running when stopped, but
	// to avoid making callers do error checking we just
	// don't do calculations if it wasn't.
	if sw.IsRunning {
		sw.ElapsedTime = sw.StopTime.Sub(sw.StartTime)
		sw.IsRunning = false
	}
	return sw.ElapsedTime
}

func (sw *Stopwatch) Elapsed() time.Duration {
	if !sw.IsRunning {
		return sw.ElapsedTime
	}
	return time.Since(sw.StartTime)
}

func (sw *Stopwatch) ElapsedString() string {
	return sw.Elapsed().String()
}
