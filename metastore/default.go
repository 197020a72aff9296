// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"strconv"

	"github.com/NVIDIA/swiftfs/logger"
	"github.com/NVIDIA/swiftfs/platform"
)

const (
	etagChunkSize = 65536
)

// EmptyETag is the ETag of zero bytes of content (and of every directory).
var EmptyETag = etagOf(nil)

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// DefaultRecord builds the record describing path as found on disk: its kind, size,
// content MD5 and ctime.
func DefaultRecord(path string) (record Record, err error) {
	var (
		fileInfo os.FileInfo
	)

	fileInfo, err = os.Stat(path)
	if nil != err {
		return
	}

	record = Record{
		XType:      Object,
		XTimestamp: TimestampFromTime(platform.Ctime(fileInfo)),
	}

	if fileInfo.IsDir() {
		record[XObjectType] = Dir
		record[XContentType] = DirType
		record[XContentLength] = "0"
		record[XETag] = EmptyETag
		return
	}

	record[XObjectType] = File
	record[XContentType] = FileType
	record[XContentLength] = strconv.FormatInt(fileInfo.Size(), 10)
	record[XETag], err = fileETag(path)
	if nil != err {
		record = nil
	}

	return
}

// CreateObjectMetadata regenerates the default record of path, merges it over whatever
// record path currently carries, persists the result and returns it.
func CreateObjectMetadata(store Store, path string) (record Record, err error) {
	var (
		defaults Record
		existing Record
	)

	defaults, err = DefaultRecord(path)
	if nil != err {
		return
	}

	existing, err = store.Read(path)
	if nil != err {
		return
	}

	record = existing.Clone()
	if nil == record {
		record = make(Record, len(defaults))
	}
	for k, v := range defaults {
		record[k] = v
	}

	err = store.Write(path, record)
	if nil != err {
		record = nil
		return
	}

	logger.Tracef("metastore.CreateObjectMetadata(%s) wrote %v", path, record)

	return
}

func fileETag(path string) (etag string, err error) {
	var (
		file *os.File
	)

	file, err = os.Open(path)
	if nil != err {
		return
	}
	defer file.Close()

	hash := md5.New()
	_, err = io.CopyBuffer(hash, file, make([]byte, etagChunkSize))
	if nil != err {
		return
	}

	etag = hex.EncodeToString(hash.Sum(nil))
	return
}
