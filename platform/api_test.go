// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFsyncAndDropBufferCache(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()

	file, err := os.Create(filepath.Join(dir, "obj"))
	require.NoError(err)
	defer file.Close()

	_, err = file.Write(make([]byte, 8192))
	require.NoError(err)

	assert.NoError(Fsync(file))
	assert.NoError(DropBufferCache(file, 0, 8192))
	assert.NoError(DropBufferCache(file, 0, 0))
	assert.NoError(FsyncDir(dir))

	assert.Error(FsyncDir(filepath.Join(dir, "missing")))
}

func TestCtimeAndFileID(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	before := time.Now().Add(-time.Minute)

	require.NoError(os.WriteFile(filepath.Join(dir, "a"), []byte("a"), 0600))
	require.NoError(os.WriteFile(filepath.Join(dir, "b"), []byte("b"), 0600))

	aInfo, err := os.Stat(filepath.Join(dir, "a"))
	require.NoError(err)
	bInfo, err := os.Stat(filepath.Join(dir, "b"))
	require.NoError(err)

	assert.True(Ctime(aInfo).After(before))

	aDev, aIno, ok := FileID(aInfo)
	assert.True(ok)
	bDev, bIno, ok := FileID(bInfo)
	assert.True(ok)
	assert.Equal(aDev, bDev)
	assert.NotEqual(aIno, bIno)

	// Rename keeps the identity
	require.NoError(os.Rename(filepath.Join(dir, "a"), filepath.Join(dir, "c")))
	cInfo, err := os.Stat(filepath.Join(dir, "c"))
	require.NoError(err)
	_, cIno, _ := FileID(cInfo)
	assert.Equal(aIno, cIno)
}
