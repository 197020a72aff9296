// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package halter

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/logger"
	"github.com/NVIDIA/swiftfs/transitions"
)

type globalsStruct struct {
	sync.Mutex
	armedTriggers         map[uint32]uint32 // key: haltLabel; value: haltAfterCount (remaining)
	triggerNamesToNumbers map[string]uint32
	triggerNumbersToNames map[uint32]string
	testModeHaltCB        func(err error)
}

var globals globalsStruct

type transitionsCallbackInterfaceStruct struct {
}

var transitionsCallbackInterface transitionsCallbackInterfaceStruct

func init() {
	globals.armedTriggers = make(map[uint32]uint32)
	globals.triggerNamesToNumbers = make(map[string]uint32)
	globals.triggerNumbersToNames = make(map[uint32]string)
	for i, s := range HaltLabelStrings {
		globals.triggerNamesToNumbers[s] = uint32(i)
		globals.triggerNumbersToNames[uint32(i)] = s
	}

	transitions.Register("halter", &transitionsCallbackInterface)
}

// Up clears any armed triggers and, optionally, arms those listed in [Halter]ArmedTriggers
//
// Each entry of [Halter]ArmedTriggers is of the form "<label>" or "<label>:<count>".
func (dummy *transitionsCallbackInterfaceStruct) Up(confMap conf.ConfMap) (err error) {
	globals.Lock()
	globals.armedTriggers = make(map[uint32]uint32)
	globals.testModeHaltCB = nil
	globals.Unlock()

	err = armFromConfMap(confMap)
	return
}

func (dummy *transitionsCallbackInterfaceStruct) Signaled(confMap conf.ConfMap) (err error) {
	err = nil
	return
}

func (dummy *transitionsCallbackInterfaceStruct) Down(confMap conf.ConfMap) (err error) {
	globals.Lock()
	globals.armedTriggers = make(map[uint32]uint32)
	globals.Unlock()
	err = nil
	return
}

func armFromConfMap(confMap conf.ConfMap) (err error) {
	var (
		armedTriggerList []string
		haltAfterCount   uint64
	)

	armedTriggerList, err = confMap.FetchOptionValueStringSlice("Halter", "ArmedTriggers")
	if nil != err {
		// [Halter]ArmedTriggers is optional
		err = nil
		return
	}

	for _, armedTrigger := range armedTriggerList {
		label, count := splitLabelAndCount(armedTrigger)
		haltAfterCount = 1
		if "" != count {
			haltAfterCount, err = parseCount(count)
			if nil != err {
				return
			}
		}
		globals.Lock()
		haltLabel, ok := globals.triggerNamesToNumbers[label]
		if ok {
			globals.armedTriggers[haltLabel] = uint32(haltAfterCount)
		}
		globals.Unlock()
		if !ok {
			logger.Warnf("halter: ignoring unknown [Halter]ArmedTriggers label \"%s\"", label)
			continue
		}
		logger.Infof("halter: armed %s to HALT after %d trigger(s)", label, haltAfterCount)
	}

	return
}

func splitLabelAndCount(armedTrigger string) (label string, count string) {
	colonIndex := strings.LastIndex(armedTrigger, ":")
	if 0 > colonIndex {
		label = armedTrigger
		return
	}
	label = armedTrigger[:colonIndex]
	count = armedTrigger[colonIndex+1:]
	return
}

func parseCount(count string) (haltAfterCount uint64, err error) {
	haltAfterCount, err = strconv.ParseUint(count, 10, 32)
	if nil != err {
		err = fmt.Errorf("halter: bad [Halter]ArmedTriggers count \"%s\": %v", count, err)
		return
	}
	if 0 == haltAfterCount {
		err = fmt.Errorf("halter: [Halter]ArmedTriggers count must be non-zero")
	}
	return
}
