// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"fmt"
	"sync"
)

// Dispatcher runs a blocking filesystem call to completion and returns its error.
//
// Implementations decide which goroutine performs the call; Execute itself always
// blocks until fn has returned.
type Dispatcher interface {
	Execute(fn func() error) (err error)
}

// InlineDispatcher runs each call on the calling goroutine.
type InlineDispatcher struct{}

func (InlineDispatcher) Execute(fn func() error) (err error) {
	err = fn()
	return
}

type dispatchRequestStruct struct {
	sync.WaitGroup
	fn  func() error
	err error
}

// PoolDispatcher runs calls on a fixed set of worker goroutines so that at most
// that many blocking filesystem calls are outstanding at once.
type PoolDispatcher struct {
	sync.RWMutex // Protects requestChan against Stop() racing Execute()
	requestChan  chan *dispatchRequestStruct
	workersWG    sync.WaitGroup
	stopped      bool
}

// NewPoolDispatcher starts numWorkers (at least one) worker goroutines.
func NewPoolDispatcher(numWorkers int) (poolDispatcher *PoolDispatcher) {
	if 1 > numWorkers {
		numWorkers = 1
	}

	poolDispatcher = &PoolDispatcher{
		requestChan: make(chan *dispatchRequestStruct, numWorkers),
	}

	poolDispatcher.workersWG.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go poolDispatcher.worker()
	}

	return
}

func (poolDispatcher *PoolDispatcher) worker() {
	defer poolDispatcher.workersWG.Done()

	for dispatchRequest := range poolDispatcher.requestChan {
		dispatchRequest.err = runRecovered(dispatchRequest.fn)
		dispatchRequest.Done()
	}
}

// runRecovered converts a panic in fn into an error so a worker outlives it.
func runRecovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); nil != r {
			err = fmt.Errorf("dispatched call panicked: %v", r)
		}
	}()
	err = fn()
	return
}

// Execute hands fn to a worker and waits for its result.
func (poolDispatcher *PoolDispatcher) Execute(fn func() error) (err error) {
	dispatchRequest := &dispatchRequestStruct{fn: fn}
	dispatchRequest.Add(1)

	poolDispatcher.RLock()
	if poolDispatcher.stopped {
		poolDispatcher.RUnlock()
		err = fmt.Errorf("diskfile.PoolDispatcher.Execute() called after Stop()")
		return
	}
	poolDispatcher.requestChan <- dispatchRequest
	poolDispatcher.RUnlock()

	dispatchRequest.Wait()

	err = dispatchRequest.err
	return
}

// Stop waits for outstanding calls to finish and terminates the workers.
func (poolDispatcher *PoolDispatcher) Stop() {
	poolDispatcher.Lock()
	if poolDispatcher.stopped {
		poolDispatcher.Unlock()
		return
	}
	poolDispatcher.stopped = true
	close(poolDispatcher.requestChan)
	poolDispatcher.Unlock()

	poolDispatcher.workersWG.Wait()
}
