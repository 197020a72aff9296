// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package transitions sequences start-up, reconfiguration and shut-down of the
// swiftfs packages that hold process-wide state (logger, stats, halter).
package transitions

import (
	"github.com/NVIDIA/swiftfs/conf"
)

// Callbacks is the interface implemented by each package desiring notification of
// configuration changes. Each such package should implement a struct with pointer
// receivers for each API listed below even when there is no interest in being
// notified of a particular condition.
//
// By calling transitions.Register() in the package's init() func, the proper order
// of registration will be ensured. Up() and Signaled() callbacks are issued in
// registration order; Down() callbacks are issued in reverse registration order.
//
type Callbacks interface {
	Up(confMap conf.ConfMap) (err error)
	Signaled(confMap conf.ConfMap) (err error)
	Down(confMap conf.ConfMap) (err error)
}

// Register should be called from a package's init() func should the package be interested
// in one or more of the callbacks that they will receive.
//
// As an example, consider the following:
//
//   package foo
//
//   import "github.com/NVIDIA/swiftfs/conf"
//   import "github.com/NVIDIA/swiftfs/transitions"
//
//   type transitionsCallbackInterfaceStruct struct {
//   }
//
//   var transitionsCallbackInterface transitionsCallbackInterfaceStruct
//
//   func init() {
//       transitions.Register("foo", &transitionsCallbackInterface)
//   }
//
//   func (transitionsCallbackInterface *transitionsCallbackInterfaceStruct) Up(confMap conf.ConfMap) (err error) {
//       // Perform start-up initialization derived from confMap
//       return
//   }
//
// A special exception to the need for registration is the package logger. Package
// transitions makes an explicit reference to logging functions in package logger and,
// as such, will perform the registration for package logger itself.
//
func Register(packageName string, callbacks Callbacks) {
	register(packageName, callbacks)
}

// Up should be called at startup by the main() (or setup func) of each program including
// any of the packages needing callback notifications.
func Up(confMap conf.ConfMap) (err error) {
	return up(confMap)
}

// Signaled should be called when the configuration has been updated (e.g. on SIGHUP).
func Signaled(confMap conf.ConfMap) (err error) {
	return signaled(confMap)
}

// Down should be called just before process exit.
func Down(confMap conf.ConfMap) (err error) {
	return down(confMap)
}

// Registered returns the registered package names in registration order.
func Registered() (packageNames []string) {
	return registered()
}
