// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"github.com/pkg/xattr"
)

func setRawChunk(path string, index int, data []byte) error {
	return xattr.Set(path, chunkKey(index), data)
}
