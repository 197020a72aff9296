// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"

	"github.com/NVIDIA/swiftfs/logger"
)

const (
	// MetadataKey names the first extended attribute holding a record; continuation
	// chunks are named MetadataKey1, MetadataKey2, ...
	MetadataKey = "user.swift.metadata"

	// MaxXattrSize bounds each chunk of an encoded record.
	MaxXattrSize = 65536
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core Deterministic Encoding: the same record always yields the same bytes
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if nil != err {
		panic("metastore: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if nil != err {
		panic("metastore: CBOR decoder initialization failed: " + err.Error())
	}
}

// XattrStore keeps each Record as CBOR in the extended attributes of its entry.
type XattrStore struct {
	chunkSize int
}

// NewXattrStore returns an XattrStore splitting records into MaxXattrSize chunks.
func NewXattrStore() *XattrStore {
	return &XattrStore{chunkSize: MaxXattrSize}
}

func chunkKey(index int) string {
	if 0 == index {
		return MetadataKey
	}
	return MetadataKey + strconv.Itoa(index)
}

// unwrapXattrError returns the errno inside an *xattr.Error so callers see the raw OS error.
func unwrapXattrError(err error) error {
	var xattrErr *xattr.Error
	if errors.As(err, &xattrErr) {
		return xattrErr.Err
	}
	return err
}

func isNoAttr(err error) bool {
	return errors.Is(unwrapXattrError(err), xattr.ENOATTR)
}

// Read reassembles and decodes the record of path.
func (store *XattrStore) Read(path string) (record Record, err error) {
	var (
		chunk   []byte
		encoded []byte
	)

	for index := 0; ; index++ {
		chunk, err = xattr.Get(path, chunkKey(index))
		if nil != err {
			if isNoAttr(err) {
				break
			}
			err = unwrapXattrError(err)
			return
		}
		encoded = append(encoded, chunk...)
	}

	err = nil

	if 0 == len(encoded) {
		return
	}

	err = decMode.Unmarshal(encoded, &record)
	if nil != err {
		logger.WarnfWithError(err, "metastore: discarding undecodable record of %s", path)
		record = nil
		err = nil
	}

	return
}

// Write encodes record onto path, replacing (and trimming) any previous chunks.
func (store *XattrStore) Write(path string, record Record) (err error) {
	var (
		encoded []byte
		index   int
	)

	encoded, err = encMode.Marshal(record)
	if nil != err {
		return
	}

	for index = 0; (0 == index) || (0 < len(encoded)); index++ {
		chunkLen := len(encoded)
		if chunkLen > store.chunkSize {
			chunkLen = store.chunkSize
		}
		err = xattr.Set(path, chunkKey(index), encoded[:chunkLen])
		if nil != err {
			err = unwrapXattrError(err)
			return
		}
		encoded = encoded[chunkLen:]
	}

	err = store.removeChunksFrom(path, index)
	return
}

// Remove deletes every chunk of the record of path.
func (store *XattrStore) Remove(path string) (err error) {
	err = store.removeChunksFrom(path, 0)
	return
}

func (store *XattrStore) removeChunksFrom(path string, index int) (err error) {
	for ; ; index++ {
		err = xattr.Remove(path, chunkKey(index))
		if nil != err {
			if isNoAttr(err) {
				err = nil
			} else {
				err = unwrapXattrError(err)
			}
			return
		}
	}
}

// XattrSupported reports whether the filesystem holding dirPath accepts user extended
// attributes, probing with a scratch file.
func XattrSupported(dirPath string) (supported bool, err error) {
	var (
		probe *os.File
	)

	probe, err = os.CreateTemp(dirPath, ".xattr-probe-")
	if nil != err {
		return
	}
	defer func() {
		_ = probe.Close()
		_ = os.Remove(probe.Name())
	}()

	err = xattr.FSet(probe, MetadataKey, []byte{})
	if nil == err {
		supported = true
		return
	}

	err = unwrapXattrError(err)
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, os.ErrPermission) {
		err = nil
		return
	}

	err = fmt.Errorf("probing extended attributes under %s: %v", filepath.Clean(dirPath), err)
	return
}
