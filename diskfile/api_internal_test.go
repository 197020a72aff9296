// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"os"
	"strconv"
	"syscall"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

func testOwnerOf(fileInfo os.FileInfo) (uid int, gid int) {
	stat := fileInfo.Sys().(*syscall.Stat_t)
	uid = int(stat.Uid)
	gid = int(stat.Gid)
	return
}
