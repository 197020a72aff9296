// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// dropBufferCache is a no-op; Darwin offers no posix_fadvise(). Reads and writes bypass
// the cache only when opened with F_NOCACHE, which the commit path does not do.
func dropBufferCache(fd int, offset int64, length int64) (err error) {
	err = nil
	return
}

// fsync uses F_FULLFSYNC since fsync(2) on Darwin does not flush the drive's write cache.
func fsync(fd int) (err error) {
	_, err = unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
	if nil != err {
		// Not all filesystems support F_FULLFSYNC
		err = unix.Fsync(fd)
	}
	return
}

func statCtime(stat *syscall.Stat_t) time.Time {
	return time.Unix(int64(stat.Ctimespec.Sec), int64(stat.Ctimespec.Nsec))
}
