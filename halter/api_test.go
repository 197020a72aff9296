// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package halter

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/transitions"
)

var (
	testHaltErr error
)

func testHalt(err error) {
	testHaltErr = err
}

func testSetup(t *testing.T, extraConfStrings ...string) (confMap conf.ConfMap) {
	var err error

	confStrings := []string{
		"Logging.LogFilePath=/dev/null",
		"Logging.LogToConsole=false",
	}
	confStrings = append(confStrings, extraConfStrings...)

	confMap, err = conf.MakeConfMapFromStrings(confStrings)
	require.NoError(t, err)

	err = transitions.Up(confMap)
	require.NoError(t, err)

	ConfigureTestModeHaltCB(testHalt)
	testHaltErr = nil

	return
}

func testTeardown(t *testing.T, confMap conf.ConfMap) {
	err := transitions.Down(confMap)
	assert.NoError(t, err)
}

func TestAPI(t *testing.T) {
	assert := assert.New(t)

	confMap := testSetup(t)
	defer testTeardown(t, confMap)

	m1 := Dump()
	assert.Equal(0, len(m1), "Dump() unexpectedly non-empty at start-up")

	Arm("halter.testHaltLabel0", 1)
	if assert.Error(testHaltErr) {
		assert.Equal("halter.Arm(haltLabelString='halter.testHaltLabel0',) - label unknown", testHaltErr.Error())
	}

	testHaltErr = nil
	Arm("halter.testHaltLabel1", 0)
	if assert.Error(testHaltErr) {
		assert.Equal("halter.Arm(haltLabel==halter.testHaltLabel1,) called with haltAfterCount==0", testHaltErr.Error())
	}

	testHaltErr = nil
	Arm("halter.testHaltLabel1", 1)
	Arm("halter.testHaltLabel2", 2)
	assert.Equal(map[string]uint32{"halter.testHaltLabel1": 1, "halter.testHaltLabel2": 2}, Dump())

	Disarm("halter.testHaltLabel1")
	assert.Equal(map[string]uint32{"halter.testHaltLabel2": 2}, Dump())

	Disarm("halter.testHaltLabel0")
	if assert.Error(testHaltErr) {
		assert.Equal("halter.Disarm(haltLabelString='halter.testHaltLabel0') - label unknown", testHaltErr.Error())
	}

	testHaltErr = nil
	Trigger(apiTestHaltLabel1)
	assert.NoError(testHaltErr, "Trigger() of a disarmed label must not HALT")

	Trigger(apiTestHaltLabel2)
	assert.NoError(testHaltErr)
	assert.Equal(map[string]uint32{"halter.testHaltLabel2": 1}, Dump())

	Trigger(apiTestHaltLabel2)
	if assert.Error(testHaltErr) {
		assert.Equal("halter.TriggerArm(haltLabelString==halter.testHaltLabel2) triggered HALT", testHaltErr.Error())
	}
	assert.Equal(0, len(Dump()), "fired trigger should have been disarmed")

	availableTriggers := List()
	sort.Strings(availableTriggers)
	expected := append([]string(nil), HaltLabelStrings...)
	sort.Strings(expected)
	assert.Equal(expected, availableTriggers)
}

func TestPanickingCallback(t *testing.T) {
	assert := assert.New(t)

	confMap := testSetup(t)
	defer testTeardown(t, confMap)

	ConfigureTestModeHaltCB(func(err error) { panic(err) })

	Arm(HaltLabelStrings[DiskFilePutBeforeRename], 1)

	assert.Panics(func() { Trigger(DiskFilePutBeforeRename) })

	// The lock must not have been left held by the panicking HALT
	Arm(HaltLabelStrings[DiskFilePutBeforeRename], 1)
	assert.Equal(map[string]uint32{"diskfile.put_BeforeRename": 1}, Dump())
	Disarm(HaltLabelStrings[DiskFilePutBeforeRename])
}

func TestArmFromConfMap(t *testing.T) {
	assert := assert.New(t)

	confMap := testSetup(t, "Halter.ArmedTriggers=diskfile.put_BeforeFsync,diskfile.put_AfterRename:3,no.such_Label")
	defer testTeardown(t, confMap)

	assert.Equal(map[string]uint32{
		"diskfile.put_BeforeFsync": 1,
		"diskfile.put_AfterRename": 3,
	}, Dump())

	badConfMap, err := conf.MakeConfMapFromStrings([]string{"Halter.ArmedTriggers=diskfile.put_BeforeFsync:0"})
	if assert.NoError(err) {
		assert.Error(armFromConfMap(badConfMap))
	}
}
