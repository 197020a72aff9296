// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWriteConfFile(t *testing.T, dir string, name string, contents string) (confFilePath string) {
	confFilePath = filepath.Join(dir, name)
	err := os.WriteFile(confFilePath, []byte(contents), 0600)
	require.NoError(t, err)
	return
}

func TestUpdateFromFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()

	_ = testWriteConfFile(t, dir, "logging.conf",
		"; included from swiftfs.conf\n"+
			"[Logging]\n"+
			"LogFilePath : /dev/null # trailing comment\n"+
			"TraceLevelLogging = diskfile, metastore\n")

	confFilePath := testWriteConfFile(t, dir, "swiftfs.conf",
		"# A comment on it's own line\n"+
			"[DiskFile]\n"+
			"MountRoot = /mnt/swift\n"+
			"UID = -1\n"+
			"KeepCacheSize : 5242880\n"+
			"AllowFileToDirOverwrite = no\n"+
			"\n"+
			".include logging.conf\n")

	confMap, err := MakeConfMapFromFile(confFilePath)
	require.NoError(err)

	mountRoot, err := confMap.FetchOptionValueString("DiskFile", "MountRoot")
	assert.NoError(err)
	assert.Equal("/mnt/swift", mountRoot)

	uid, err := confMap.FetchOptionValueInt64("DiskFile", "UID")
	assert.NoError(err)
	assert.Equal(int64(-1), uid)

	keepCacheSize, err := confMap.FetchOptionValueUint64("DiskFile", "KeepCacheSize")
	assert.NoError(err)
	assert.Equal(uint64(5242880), keepCacheSize)

	allow, err := confMap.FetchOptionValueBool("DiskFile", "AllowFileToDirOverwrite")
	assert.NoError(err)
	assert.False(allow)

	traceList, err := confMap.FetchOptionValueStringSlice("Logging", "TraceLevelLogging")
	assert.NoError(err)
	assert.Equal([]string{"diskfile", "metastore"}, traceList)

	logFilePath, err := confMap.FetchOptionValueString("Logging", "LogFilePath")
	assert.NoError(err)
	assert.Equal("/dev/null", logFilePath)
}

func TestUpdateFromFileErrors(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	noSection := testWriteConfFile(t, dir, "nosection.conf", "MountRoot = /mnt/swift\n")
	_, err := MakeConfMapFromFile(noSection)
	assert.Error(err)

	noNewline := testWriteConfFile(t, dir, "nonewline.conf", "[DiskFile]\nMountRoot = /mnt/swift")
	_, err = MakeConfMapFromFile(noNewline)
	assert.Error(err)

	_, err = MakeConfMapFromFile(filepath.Join(dir, "missing.conf"))
	assert.Error(err)
}

func TestFetch(t *testing.T) {
	assert := assert.New(t)

	confMap, err := MakeConfMapFromStrings([]string{
		"DiskFile.MountRoot=/mnt/swift",
		"DiskFile.DiskChunkSize=65536",
		"DiskFile.DispatcherWorkers=8",
		"DiskFile.Empty=",
		"DiskFile.TwoValues=a,b",
		"DiskFile.Bogus=notanumber",
		"Halter.Delay=250ms",
	})
	if !assert.NoError(err) {
		return
	}

	chunk, err := confMap.FetchOptionValueUint64("DiskFile", "DiskChunkSize")
	assert.NoError(err)
	assert.Equal(uint64(65536), chunk)

	workers, err := confMap.FetchOptionValueUint32("DiskFile", "DispatcherWorkers")
	assert.NoError(err)
	assert.Equal(uint32(8), workers)

	delay, err := confMap.FetchOptionValueDuration("Halter", "Delay")
	assert.NoError(err)
	assert.Equal(250*time.Millisecond, delay)

	empty, err := confMap.FetchOptionValueStringSlice("DiskFile", "Empty")
	assert.NoError(err)
	assert.Equal(0, len(empty))

	_, err = confMap.FetchOptionValueString("DiskFile", "TwoValues")
	assert.Error(err)

	_, err = confMap.FetchOptionValueUint64("DiskFile", "Bogus")
	assert.Error(err)

	_, err = confMap.FetchOptionValueInt64("DiskFile", "Bogus")
	assert.Error(err)

	_, err = confMap.FetchOptionValueBool("DiskFile", "Bogus")
	assert.Error(err)

	_, err = confMap.FetchOptionValueString("NoSuchSection", "MountRoot")
	assert.Error(err)

	_, err = confMap.FetchOptionValueString("DiskFile", "NoSuchOption")
	assert.Error(err)

	err = confMap.UpdateFromString("DiskFile.DiskChunkSize=1024")
	assert.NoError(err)
	chunk, err = confMap.FetchOptionValueUint64("DiskFile", "DiskChunkSize")
	assert.NoError(err)
	assert.Equal(uint64(1024), chunk)

	err = confMap.UpdateFromString("   ")
	assert.Error(err)
	err = confMap.UpdateFromString("NoDotHere")
	assert.Error(err)
}
