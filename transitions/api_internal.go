// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package transitions

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/logger"
)

type loggerCallbacksInterfaceStruct struct {
}

var loggerCallbacksInterface loggerCallbacksInterfaceStruct

type registrationItemStruct struct {
	packageName string
	callbacks   Callbacks
}

type globalsStruct struct {
	sync.Mutex                                          // Protects insertions into registration{List|Set} during init() phase
	registrationList *list.List                         // Values are *registrationItemStruct
	registrationSet  map[string]*registrationItemStruct // Key: registrationItemStruct.packageName
	up               bool
}

var globals globalsStruct

func init() {
	globals.Lock()
	globals.registrationList = list.New()
	globals.registrationSet = make(map[string]*registrationItemStruct)
	globals.Unlock()

	Register("logger", &loggerCallbacksInterface)
}

func register(packageName string, callbacks Callbacks) {
	var (
		alreadyRegisted  bool
		registrationItem *registrationItemStruct
	)

	globals.Lock()
	_, alreadyRegisted = globals.registrationSet[packageName]
	if alreadyRegisted {
		globals.Unlock()
		logger.Fatalf("transitions.Register(%s,) called twice", packageName)
		return
	}
	registrationItem = &registrationItemStruct{packageName, callbacks}
	_ = globals.registrationList.PushBack(registrationItem)
	globals.registrationSet[packageName] = registrationItem
	globals.Unlock()
}

func registered() (packageNames []string) {
	globals.Lock()
	defer globals.Unlock()

	packageNames = make([]string, 0, globals.registrationList.Len())
	for registrationListElement := globals.registrationList.Front(); nil != registrationListElement; registrationListElement = registrationListElement.Next() {
		packageNames = append(packageNames, registrationListElement.Value.(*registrationItemStruct).packageName)
	}

	return
}

func up(confMap conf.ConfMap) (err error) {
	var (
		registrationItem        *registrationItemStruct
		registrationListElement *list.Element
	)

	defer func() {
		if nil == err {
			logger.Infof("transitions.Up() returning successfully")
		} else {
			// On the relatively good likelihood that at least logger.Up() worked...
			logger.Errorf("transitions.Up() returning with failure: %v", err)
		}
	}()

	if globals.up {
		err = fmt.Errorf("transitions.Up() called while already up")
		return
	}

	// Issue Callbacks.Up() calls from Front() to Back() of globals.registrationList

	registrationListElement = globals.registrationList.Front()

	for nil != registrationListElement {
		registrationItem = registrationListElement.Value.(*registrationItemStruct)
		logger.Tracef("transitions.Up() calling %s.Up()", registrationItem.packageName)
		err = registrationItem.callbacks.Up(confMap)
		if nil != err {
			logger.Errorf("transitions.Up() call to %s.Up() failed: %v", registrationItem.packageName, err)
			err = fmt.Errorf("%s.Up() failed: %v", registrationItem.packageName, err)
			unwind(confMap, registrationListElement.Prev())
			return
		}
		registrationListElement = registrationListElement.Next()
	}

	globals.up = true

	logger.Infof("Transitions Package Registration List: %v", registered())

	return
}

// unwind issues Down() calls from registrationListElement back to Front() after a failed up()
func unwind(confMap conf.ConfMap, registrationListElement *list.Element) {
	for nil != registrationListElement {
		registrationItem := registrationListElement.Value.(*registrationItemStruct)
		downErr := registrationItem.callbacks.Down(confMap)
		if nil != downErr {
			logger.Warnf("transitions.Up() unwind of %s.Down() failed: %v", registrationItem.packageName, downErr)
		}
		registrationListElement = registrationListElement.Prev()
	}
}

func signaled(confMap conf.ConfMap) (err error) {
	var (
		registrationItem        *registrationItemStruct
		registrationListElement *list.Element
	)

	logger.Infof("transitions.Signaled() called")

	if !globals.up {
		err = fmt.Errorf("transitions.Signaled() called while not up")
		return
	}

	// Issue Callbacks.Signaled() calls from Front() to Back() of globals.registrationList

	registrationListElement = globals.registrationList.Front()

	for nil != registrationListElement {
		registrationItem = registrationListElement.Value.(*registrationItemStruct)
		logger.Tracef("transitions.Signaled() calling %s.Signaled()", registrationItem.packageName)
		err = registrationItem.callbacks.Signaled(confMap)
		if nil != err {
			logger.Errorf("transitions.Signaled() call to %s.Signaled() failed: %v", registrationItem.packageName, err)
			err = fmt.Errorf("%s.Signaled() failed: %v", registrationItem.packageName, err)
			return
		}
		registrationListElement = registrationListElement.Next()
	}

	return
}

func down(confMap conf.ConfMap) (err error) {
	var (
		registrationItem        *registrationItemStruct
		registrationListElement *list.Element
	)

	logger.Infof("transitions.Down() called")
	defer func() {
		if nil != err {
			// On the relatively good likelihood that the failure occurred before calling logger.Down()...
			logger.Errorf("transitions.Down() returning with failure: %v", err)
		}
	}()

	if !globals.up {
		err = fmt.Errorf("transitions.Down() called while not up")
		return
	}

	// Issue Callbacks.Down() calls from Back() to Front() of globals.registrationList

	registrationListElement = globals.registrationList.Back()

	for nil != registrationListElement {
		registrationItem = registrationListElement.Value.(*registrationItemStruct)
		logger.Tracef("transitions.Down() calling %s.Down()", registrationItem.packageName)
		err = registrationItem.callbacks.Down(confMap)
		if nil != err {
			logger.Errorf("transitions.Down() call to %s.Down() failed: %v", registrationItem.packageName, err)
			err = fmt.Errorf("%s.Down() failed: %v", registrationItem.packageName, err)
			return
		}
		registrationListElement = registrationListElement.Prev()
	}

	globals.up = false

	return
}

func (loggerCallbacksInterface *loggerCallbacksInterfaceStruct) Up(confMap conf.ConfMap) (err error) {
	return logger.Up(confMap)
}

func (loggerCallbacksInterface *loggerCallbacksInterfaceStruct) Signaled(confMap conf.ConfMap) (err error) {
	return logger.Signaled(confMap)
}

func (loggerCallbacksInterface *loggerCallbacksInterfaceStruct) Down(confMap conf.ConfMap) (err error) {
	return logger.Down(confMap)
}
