// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathToAcctContObj(t *testing.T) {
	assert := assert.New(t)

	accountName, containerName, objectName, err := PathToAcctContObj("/v1/AUTH_test")
	assert.Nil(err)
	assert.Equal("AUTH_test", accountName)
	assert.Equal("", containerName)
	assert.Equal("", objectName)

	accountName, containerName, objectName, err = PathToAcctContObj("/v1/AUTH_test/c")
	assert.Nil(err)
	assert.Equal("AUTH_test", accountName)
	assert.Equal("c", containerName)
	assert.Equal("", objectName)

	accountName, containerName, objectName, err = PathToAcctContObj("/v1/AUTH_test/c/photos/vacation/img1.jpg")
	assert.Nil(err)
	assert.Equal("AUTH_test", accountName, "Wrong account name!")
	assert.Equal("c", containerName, "Wrong container name!")
	assert.Equal("photos/vacation/img1.jpg", objectName, "Wrong object name!")

	_, _, _, err = PathToAcctContObj("/v1")
	assert.NotNil(err)
	_, _, _, err = PathToAcctContObj("v1/AUTH_test/c/o")
	assert.NotNil(err)
	_, _, _, err = PathToAcctContObj("/v1//c/o")
	assert.NotNil(err)
}

func TestGetAFnName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("utils.TestGetAFnName", GetAFnName(0))

	fn, pkg, gid := GetFuncPackage(0)
	assert.Equal("utils", pkg)
	assert.Equal("TestGetAFnName", fn)
	assert.NotEqual(uint64(0), gid)
}

func TestStopwatch(t *testing.T) {
	assert := assert.New(t)

	sw := NewStopwatch()
	assert.True(sw.IsRunning)
	assert.True(sw.StopTime.IsZero())

	time.Sleep(10 * time.Millisecond)

	elapsed := sw.Stop()
	assert.False(sw.IsRunning)
	assert.True(elapsed >= 10*time.Millisecond)
	assert.Equal(elapsed, sw.Elapsed())
	assert.Equal(elapsed.String(), sw.ElapsedString())
}
