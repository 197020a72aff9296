// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Package diskfile maps object-storage objects (device, account, container, object) onto
// a POSIX directory tree.
//
// An object named "photos/vacation/img1.jpg" in container "c" of device "d" lives at
// <MountRoot>/d/c/photos/vacation/img1.jpg. The intermediate segments are real
// directories ("marker directories") carrying object metadata of their own. Metadata is
// kept out-of-band by a metastore.Store so that object content is stored verbatim.
//
// Content is committed with the temp file, fsync, rename, chown protocol: a crash before
// the rename leaves the previous object intact and a stray temp file under
// <MountRoot>/<device>/<TmpDirName>; partial content is never visible under the
// object's name.
//
// A DiskFile is built per request by Manager.New and is not safe for concurrent use.
// Competing writers to one object are ordered by the atomic rename and by timestamps:
// a write whose timestamp is not newer than the stored one fails with
// blunder.OlderTimestampError.
package diskfile

import (
	"io"
	"os"
)

// WriteKind distinguishes the three sorts of Put.
type WriteKind int

const (
	// WriteTombstone is a deletion marker; deletion itself is done by UnlinkOld
	WriteTombstone WriteKind = iota
	// WriteMetadata replaces the metadata of an existing object
	WriteMetadata
	// WriteData commits the content of a fully written temp file
	WriteData
)

func (writeKind WriteKind) String() string {
	switch writeKind {
	case WriteTombstone:
		return "tombstone"
	case WriteMetadata:
		return "metadata"
	case WriteData:
		return "data"
	default:
		return "unknown"
	}
}

// Metadata is the caller-visible metadata of an object.
type Metadata struct {
	ContentType   string
	ContentLength int64 // negative when unknown
	Timestamp     string
	ETag          string
	Extra         map[string]string // user metadata and any other caller keys
}

// Object is the capability set a storage-node service needs from an object handle.
type Object interface {
	IsDeleted() bool
	IsDir() bool
	Metadata() (metadata Metadata, ok bool)
	DataFile() string
	DataFileSize() (size int64, err error)
	Mkstemp() (tempFile *TempFile, err error)
	Put(fd *os.File, tmpPath string, metadata Metadata, kind WriteKind) (err error)
	PutMetadata(metadata Metadata) (err error)
	UnlinkOld(timestamp string) (unlinked bool, err error)
	WriteTo(w io.Writer) (n int64, err error)
	WriteRangeTo(w io.Writer, start int64, stop int64) (n int64, err error)
	Open() (err error)
	Close() (err error)
}

// TempFile is a uniquely named scratch file under the device's tmp directory.
//
// Release must be called on every exit path (typically deferred right after Mkstemp);
// after a successful Put the temp name no longer exists and Release only closes File.
type TempFile struct {
	File *os.File
	Path string
}

// Release closes and unlinks the temp file, ignoring errors.
func (tempFile *TempFile) Release() {
	if nil == tempFile {
		return
	}
	if nil != tempFile.File {
		_ = tempFile.File.Close()
		tempFile.File = nil
	}
	if "" != tempFile.Path {
		_ = os.Remove(tempFile.Path)
		tempFile.Path = ""
	}
}

var _ Object = (*DiskFile)(nil)
