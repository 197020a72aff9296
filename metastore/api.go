// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package metastore persists the flat key/value record describing an object apart from
// the object's content.
//
// The record of a file or directory lives in extended attributes of that entry (see
// XattrStore) so it moves with the entry on rename and dies with it on unlink. A
// process-local MemoryStore with the same semantics serves tests and filesystems lacking
// user extended attributes.
package metastore

import (
	"fmt"
	"os"
	"strings"
)

// Record is the persisted form of object metadata, including the internal object-kind keys.
type Record map[string]string

// Keys of a Record.
const (
	XContentType   = "Content-Type"
	XContentLength = "Content-Length"
	XTimestamp     = "X-Timestamp"
	XETag          = "ETag"
	XType          = "X-Type"
	XObjectType    = "X-Object-Type"
)

// Values of XType and XObjectType.
const (
	Object    = "Object"
	File      = "file"
	Dir       = "dir"
	MarkerDir = "marker_dir"
)

// Default content types.
const (
	DirType  = "application/directory"
	FileType = "application/octet-stream"
)

// Store reads and writes the Record of a filesystem entry.
//
// Read returns a nil Record (and nil error) when the entry exists but carries no
// readable record. Errors on the entry itself (e.g. it does not exist) are returned
// as the raw OS error.
type Store interface {
	Read(path string) (record Record, err error)
	Write(path string, record Record) (err error)
	Remove(path string) (err error)
}

// Forgetter is implemented by Stores whose records are not dropped along with the entry
// they describe. Forget discards the record of an entry already removed from the
// filesystem, identified by the os.FileInfo taken before its removal.
type Forgetter interface {
	Forget(fileInfo os.FileInfo)
}

// Validate reports whether record carries every required key and describes an Object.
func Validate(record Record) (valid bool) {
	for _, key := range []string{XTimestamp, XContentType, XETag, XContentLength, XType, XObjectType} {
		if _, ok := record[key]; !ok {
			return false
		}
	}
	return Object == record[XType]
}

// ObjectTypeFor returns the XObjectType matching a caller supplied content type along
// with the content type to record (the empty content type is recorded as FileType).
func ObjectTypeFor(contentType string) (objectType string, recordedContentType string) {
	if "" == contentType {
		objectType = File
		recordedContentType = FileType
		return
	}
	recordedContentType = contentType
	if strings.EqualFold(contentType, DirType) {
		objectType = MarkerDir
	} else {
		objectType = File
	}
	return
}

// Clone returns a copy of record that may be modified independently.
func (record Record) Clone() (clone Record) {
	if nil == record {
		return nil
	}
	clone = make(Record, len(record))
	for k, v := range record {
		clone[k] = v
	}
	return
}

// Store kinds accepted by NewStore.
const (
	XattrStoreKind  = "xattr"
	MemoryStoreKind = "memory"
)

// NewStore returns a Store of the named kind.
func NewStore(kind string) (store Store, err error) {
	switch strings.ToLower(kind) {
	case XattrStoreKind:
		store = NewXattrStore()
	case MemoryStoreKind:
		store = NewMemoryStore()
	default:
		err = fmt.Errorf("unknown metadata store kind \"%s\" (want \"%s\" or \"%s\")", kind, XattrStoreKind, MemoryStoreKind)
	}
	return
}
