// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func dropBufferCache(fd int, offset int64, length int64) (err error) {
	err = unix.Fadvise(fd, offset, length, unix.FADV_DONTNEED)
	return
}

func fsync(fd int) (err error) {
	err = unix.Fsync(fd)
	return
}

func statCtime(stat *syscall.Stat_t) time.Time {
	return time.Unix(int64(stat.Ctim.Sec), int64(stat.Ctim.Nsec))
}
