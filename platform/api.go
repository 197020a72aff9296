// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package platform isolates the OS-specific calls made on the commit and read paths.
package platform

import (
	"errors"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DropBufferCache advises the kernel that the byte range [offset, offset+length) of file
// will not be needed again. It is a hint only; a zero length means "to end of file".
func DropBufferCache(file *os.File, offset int64, length int64) (err error) {
	err = dropBufferCache(int(file.Fd()), offset, length)
	return
}

// Fsync flushes file's data and metadata to stable storage.
func Fsync(file *os.File) (err error) {
	err = fsync(int(file.Fd()))
	return
}

// FsyncDir flushes the directory entry table of dirPath. Filesystems that cannot fsync a
// directory report EINVAL, which is not treated as a failure.
func FsyncDir(dirPath string) (err error) {
	var (
		dir *os.File
	)

	dir, err = os.Open(dirPath)
	if nil != err {
		return
	}

	err = fsync(int(dir.Fd()))
	if errors.Is(err, unix.EINVAL) {
		err = nil
	}

	closeErr := dir.Close()
	if nil == err {
		err = closeErr
	}

	return
}

// Ctime returns the inode change time recorded in fileInfo, falling back to the
// modification time when fileInfo did not come from a stat(2) call.
func Ctime(fileInfo os.FileInfo) (ctime time.Time) {
	stat, ok := fileInfo.Sys().(*syscall.Stat_t)
	if !ok {
		ctime = fileInfo.ModTime()
		return
	}
	ctime = statCtime(stat)
	return
}

// FileID returns the (device, inode) pair identifying the file behind fileInfo.
func FileID(fileInfo os.FileInfo) (dev uint64, ino uint64, ok bool) {
	stat, ok := fileInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	dev = uint64(stat.Dev)
	ino = uint64(stat.Ino)
	return
}
