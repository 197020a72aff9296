// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/transitions"
)

func testSetup(t *testing.T, confStrings []string) (confMap conf.ConfMap) {
	var err error

	confMap, err = conf.MakeConfMapFromStrings(append([]string{
		"Logging.LogFilePath=/dev/null",
		"Logging.LogToConsole=false",
	}, confStrings...))
	require.NoError(t, err)

	err = transitions.Up(confMap)
	require.NoError(t, err)

	return
}

func testTeardown(t *testing.T, confMap conf.ConfMap) {
	assert.NoError(t, transitions.Down(confMap))
}

func TestStatsAPI(t *testing.T) {
	assert := assert.New(t)

	confMap := testSetup(t, []string{"Stats.Namespace=swiftfs_test"})
	defer testTeardown(t, confMap)

	assert.Equal(0, len(Dump()), "stats should be reset by Up()")

	IncrementOperations(&DiskFilePutMetadataOps)
	IncrementOperations(&DiskFilePutMetadataOps)
	IncrementOperationsBy(&DiskFileSizeRepairs, 5)
	IncrementOperationsBy(&DiskFileSizeRepairs, 0)
	IncrementOperations(nil)
	IncrementOperationsAndBytes(DiskFilePut, 4096)
	IncrementOperationsAndBytes(DiskFilePut, 100)
	IncrementOperationsAndBytes(DiskFileRead, 0)

	assert.Equal(map[string]uint64{
		"diskfile.put_metadata.operations": 2,
		"diskfile.size.repairs":            5,
		"diskfile.put.operations":          2,
		"diskfile.put.bytes":               4196,
		"diskfile.read.operations":         1,
	}, Dump())

	metricFamilies, err := Registry().Gather()
	if assert.NoError(err) && assert.Equal(1, len(metricFamilies)) {
		assert.Equal("swiftfs_test_operations_total", metricFamilies[0].GetName())
	}
}

func TestBadNamespace(t *testing.T) {
	assert := assert.New(t)

	confMap, err := conf.MakeConfMapFromStrings([]string{"Stats.Namespace=9bad-name"})
	require.NoError(t, err)

	err = globals.Up(confMap)
	assert.Error(err)

	confMap, err = conf.MakeConfMapFromStrings([]string{"Logging.LogToConsole=false"})
	require.NoError(t, err)
	err = globals.Up(confMap)
	assert.NoError(err)
	assert.Equal(defaultNamespace, globals.namespace)
}
