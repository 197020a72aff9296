// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/NVIDIA/swiftfs/blunder"
	"github.com/NVIDIA/swiftfs/halter"
	"github.com/NVIDIA/swiftfs/metastore"
	"github.com/NVIDIA/swiftfs/platform"
	"github.com/NVIDIA/swiftfs/stats"
)

const (
	dirPerm = os.FileMode(0755)
)

// DiskFile is the handle on one object for the duration of one request.
type DiskFile struct {
	manager *Manager
	log     logrus.FieldLogger

	device    string
	account   string
	container string
	objPath   string // intermediate segments ("photos/vacation"), "" if none
	obj       string // final segment ("img1.jpg")
	name      string // container[/objPath]

	devicePath    string // <MountRoot>/<device>
	containerPath string // <devicePath>/<container>
	datadir       string // <devicePath>/<name>
	objectPath    string // <datadir>/<obj>
	tmpDir        string // <devicePath>/<TmpDirName>

	dataFile    string   // == objectPath if the object exists, else ""
	fp          *os.File // open descriptor on dataFile (files only)
	metadata    Metadata
	objectType  string
	hasMetadata bool
	isDir       bool
	isValid     bool // false if the on-disk record had to be repaired at probe time

	uid int
	gid int
}

func (diskFile *DiskFile) execute(fn func() error) (err error) {
	err = diskFile.manager.dispatcher.Execute(fn)
	return
}

func isAbsent(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, unix.ENOTDIR)
}

func (diskFile *DiskFile) probe(keepDataFP bool) (err error) {
	var (
		fileInfo os.FileInfo
	)

	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(diskFile.objectPath)
		return
	})
	if nil != err {
		if isAbsent(err) {
			err = nil
		}
		return
	}

	diskFile.dataFile = diskFile.objectPath

	err = diskFile.loadMetadata()
	if nil != err {
		if isAbsent(err) {
			diskFile.reset()
			err = nil
		}
		return
	}

	if fileInfo.IsDir() {
		diskFile.isDir = true
		return
	}

	err = diskFile.Open()
	if nil != err {
		if blunder.Is(err, blunder.NotFoundError) {
			// Vanished since the Stat() above
			diskFile.reset()
			err = nil
		}
		return
	}

	if !keepDataFP {
		err = diskFile.Close()
	}

	return
}

func (diskFile *DiskFile) loadMetadata() (err error) {
	var (
		record metastore.Record
		store  = diskFile.manager.store
	)

	err = diskFile.execute(func() (err error) {
		record, err = store.Read(diskFile.objectPath)
		return
	})
	if nil != err {
		return
	}

	if (nil == record) || !metastore.Validate(record) {
		diskFile.log.WithField("path", diskFile.objectPath).Warnf("repairing missing or invalid object metadata %v", record)
		err = diskFile.execute(func() (err error) {
			record, err = metastore.CreateObjectMetadata(store, diskFile.objectPath)
			return
		})
		if nil != err {
			return
		}
		diskFile.isValid = false
		stats.IncrementOperations(&stats.DiskFileMetadataRepairs)
	}

	diskFile.setMetadata(fromRecord(record))

	return
}

func (diskFile *DiskFile) setMetadata(metadata Metadata, objectType string) {
	diskFile.metadata = metadata
	diskFile.objectType = objectType
	diskFile.hasMetadata = true
}

func (diskFile *DiskFile) reset() {
	if nil != diskFile.fp {
		_ = diskFile.fp.Close()
		diskFile.fp = nil
	}
	diskFile.dataFile = ""
	diskFile.metadata = Metadata{}
	diskFile.objectType = ""
	diskFile.hasMetadata = false
	diskFile.isDir = false
}

// IsDeleted reports whether no data file (or marker directory) was found.
func (diskFile *DiskFile) IsDeleted() bool {
	return "" == diskFile.dataFile
}

// IsDir reports whether the object is a marker directory.
func (diskFile *DiskFile) IsDir() bool {
	return diskFile.isDir
}

// Metadata returns a copy of the object's metadata; ok is false for an absent object.
func (diskFile *DiskFile) Metadata() (metadata Metadata, ok bool) {
	if !diskFile.hasMetadata {
		metadata.ContentLength = -1
		return
	}
	metadata = diskFile.metadata.Clone()
	ok = true
	return
}

// DataFile returns the path of the object's file or directory, "" if absent.
func (diskFile *DiskFile) DataFile() string {
	return diskFile.dataFile
}

// Path returns where the object lives (or would live) on disk.
func (diskFile *DiskFile) Path() string {
	return diskFile.objectPath
}

// Repaired reports whether the object's metadata was regenerated when the handle was built.
func (diskFile *DiskFile) Repaired() bool {
	return !diskFile.isValid
}

// DataFileSize returns the size of the object's content, 0 for a marker directory.
//
// A recorded Content-Length disagreeing with the file's actual size is corrected (and
// persisted) before returning.
func (diskFile *DiskFile) DataFileSize() (size int64, err error) {
	var (
		fileInfo os.FileInfo
	)

	if diskFile.isDir {
		size = 0
		return
	}

	if "" == diskFile.dataFile {
		err = blunder.NewError(blunder.NotFoundError, "data file %s does not exist", diskFile.objectPath)
		return
	}

	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(diskFile.dataFile)
		return
	})
	if nil != err {
		if os.IsNotExist(err) {
			err = blunder.NewError(blunder.NotFoundError, "data file %s does not exist", diskFile.dataFile)
		}
		return
	}

	size = fileInfo.Size()

	if diskFile.hasMetadata && (0 <= diskFile.metadata.ContentLength) && (size != diskFile.metadata.ContentLength) {
		diskFile.log.WithField("path", diskFile.dataFile).Warnf("correcting recorded Content-Length %d to actual size %d", diskFile.metadata.ContentLength, size)
		corrected := diskFile.metadata.Clone()
		corrected.ContentLength = size
		err = diskFile.updateObject(corrected, diskFile.objectType)
		if nil != err {
			if os.IsNotExist(err) {
				err = blunder.NewError(blunder.NotFoundError, "data file %s does not exist", diskFile.dataFile)
			}
			size = 0
			return
		}
		stats.IncrementOperations(&stats.DiskFileSizeRepairs)
	}

	return
}

// updateObject persists metadata against the object path and adopts it.
func (diskFile *DiskFile) updateObject(metadata Metadata, objectType string) (err error) {
	record := metadata.toRecord(objectType)

	err = diskFile.execute(func() error {
		return diskFile.manager.store.Write(diskFile.objectPath, record)
	})
	if nil != err {
		return
	}

	diskFile.setMetadata(metadata, objectType)

	return
}

// Mkstemp creates a uniquely named temp file in the device's tmp directory, creating
// that directory if needed. The caller must Release() it.
func (diskFile *DiskFile) Mkstemp() (tempFile *TempFile, err error) {
	var (
		file *os.File
	)

	err = diskFile.execute(func() (err error) {
		err = os.MkdirAll(diskFile.tmpDir, dirPerm)
		if nil != err {
			return
		}
		file, err = os.CreateTemp(diskFile.tmpDir, "tmp")
		return
	})
	if nil != err {
		return
	}

	tempFile = &TempFile{File: file, Path: file.Name()}

	return
}

// Put finalizes a write of the object.
//
// WriteTombstone is a no-op. WriteMetadata replaces the metadata of the existing
// object. WriteData with a Content-Type of application/directory creates a marker
// directory; otherwise it commits the content of fd (open on tmpPath, fully written)
// under the object's name.
func (diskFile *DiskFile) Put(fd *os.File, tmpPath string, metadata Metadata, kind WriteKind) (err error) {
	var (
		objectType string
		prepared   Metadata
	)

	if WriteTombstone == kind {
		err = nil
		return
	}

	prepared, objectType, err = prepareMetadata(metadata)
	if nil != err {
		return
	}

	switch {
	case WriteMetadata == kind:
		err = diskFile.putMetadata(prepared, objectType)
	case metastore.MarkerDir == objectType:
		err = diskFile.putMarker(prepared)
	case WriteData == kind:
		err = diskFile.putData(fd, tmpPath, prepared)
	default:
		err = blunder.NewError(blunder.InvalidArgError, "unknown write kind %v", kind)
	}

	return
}

// PutMetadata replaces the metadata of the existing object.
func (diskFile *DiskFile) PutMetadata(metadata Metadata) (err error) {
	err = diskFile.Put(nil, "", metadata, WriteMetadata)
	return
}

// checkNewer fails with OlderTimestampError unless timestamp is strictly newer than that
// of the record currently stored at the object path. Synthetic "dir" records carry no
// caller timestamp and never block a write.
func (diskFile *DiskFile) checkNewer(timestamp string) (err error) {
	var (
		record metastore.Record
	)

	err = diskFile.execute(func() (err error) {
		record, err = diskFile.manager.store.Read(diskFile.objectPath)
		return
	})
	if nil != err {
		if isAbsent(err) {
			err = nil
		}
		return
	}

	if !metastore.Validate(record) || (metastore.Dir == record[metastore.XObjectType]) {
		return
	}

	if record[metastore.XTimestamp] >= timestamp {
		err = blunder.NewError(blunder.OlderTimestampError, "%s already stored with timestamp %s (not older than %s)", diskFile.objectPath, record[metastore.XTimestamp], timestamp)
	}

	return
}

// checkContainer fails with NotFoundError if the container directory does not exist.
func (diskFile *DiskFile) checkContainer() (err error) {
	var (
		fileInfo os.FileInfo
	)

	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(diskFile.containerPath)
		return
	})
	if nil != err {
		if isAbsent(err) {
			err = blunder.NewError(blunder.NotFoundError, "container %s/%s does not exist", diskFile.device, diskFile.container)
		}
		return
	}

	if !fileInfo.IsDir() {
		err = blunder.NewError(blunder.NotFoundError, "container %s/%s is not a directory", diskFile.device, diskFile.container)
	}

	return
}

func (diskFile *DiskFile) putMetadata(metadata Metadata, objectType string) (err error) {
	var (
		fileInfo os.FileInfo
	)

	// The handle may predate a commit by another request; the filesystem has the last word
	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(diskFile.objectPath)
		return
	})
	if nil != err {
		if isAbsent(err) {
			err = blunder.NewError(blunder.NotFoundError, "object %s does not exist", diskFile.objectPath)
		}
		return
	}

	if 0 > metadata.ContentLength {
		if fileInfo.IsDir() {
			metadata.ContentLength = 0
		} else {
			metadata.ContentLength = fileInfo.Size()
		}
	}

	err = diskFile.checkNewer(metadata.Timestamp)
	if nil != err {
		return
	}

	err = diskFile.updateObject(metadata, objectType)
	if nil != err {
		if isAbsent(err) {
			err = blunder.NewError(blunder.NotFoundError, "object %s does not exist", diskFile.objectPath)
		}
		return
	}

	diskFile.dataFile = diskFile.objectPath

	stats.IncrementOperations(&stats.DiskFilePutMetadataOps)

	return
}

func (diskFile *DiskFile) putMarker(metadata Metadata) (err error) {
	if 0 > metadata.ContentLength {
		metadata.ContentLength = 0
	}

	err = diskFile.checkContainer()
	if nil != err {
		return
	}

	err = diskFile.checkNewer(metadata.Timestamp)
	if nil != err {
		return
	}

	err = diskFile.createIntermediateDirs()
	if nil != err {
		return
	}

	err = diskFile.createDirObject(diskFile.objectPath, false)
	if nil != err {
		return
	}

	if nil != diskFile.fp {
		_ = diskFile.fp.Close()
		diskFile.fp = nil
	}

	err = diskFile.updateObject(metadata, metastore.MarkerDir)
	if nil != err {
		return
	}

	diskFile.dataFile = diskFile.objectPath
	diskFile.isDir = true

	stats.IncrementOperations(&stats.DiskFilePutMarkerOps)

	return
}

func (diskFile *DiskFile) putData(fd *os.File, tmpPath string, metadata Metadata) (err error) {
	var (
		fileInfo os.FileInfo
		store    = diskFile.manager.store
	)

	if diskFile.isDir {
		err = blunder.NewError(blunder.AlreadyExistsAsDirError, "file object already exists as a directory: %s", diskFile.objectPath)
		return
	}

	if (nil == fd) || ("" == tmpPath) {
		err = blunder.NewError(blunder.InvalidArgError, "data put of %s requires an open temp file", diskFile.objectPath)
		return
	}

	err = diskFile.checkContainer()
	if nil != err {
		return
	}

	err = diskFile.checkNewer(metadata.Timestamp)
	if nil != err {
		return
	}

	if 0 > metadata.ContentLength {
		// Length was not known up front; record what was actually written
		err = diskFile.execute(func() (err error) {
			fileInfo, err = fd.Stat()
			return
		})
		if nil != err {
			return
		}
		metadata.ContentLength = fileInfo.Size()
	}

	record := metadata.toRecord(metastore.File)

	err = diskFile.execute(func() error {
		return store.Write(tmpPath, record)
	})
	if nil != err {
		return
	}

	if uint64(metadata.ContentLength) > diskFile.manager.config.KeepCacheSize {
		dropErr := platform.DropBufferCache(fd, 0, metadata.ContentLength)
		if nil != dropErr {
			diskFile.log.WithError(dropErr).Debug("dropping written pages from the buffer cache failed")
		}
	}

	halter.Trigger(halter.DiskFilePutBeforeFsync)

	err = diskFile.execute(func() error {
		return platform.Fsync(fd)
	})
	if nil != err {
		return
	}

	err = diskFile.createIntermediateDirs()
	if nil != err {
		return
	}

	halter.Trigger(halter.DiskFilePutBeforeRename)

	err = diskFile.execute(func() error {
		return os.Rename(tmpPath, diskFile.objectPath)
	})
	if nil != err {
		if errors.Is(err, unix.EISDIR) || errors.Is(err, unix.EEXIST) || errors.Is(err, unix.ENOTEMPTY) {
			err = blunder.AddError(err, blunder.AlreadyExistsAsDirError)
		}
		return
	}

	halter.Trigger(halter.DiskFilePutAfterRename)

	fsyncErr := diskFile.execute(func() error {
		return platform.FsyncDir(diskFile.datadir)
	})
	if nil != fsyncErr {
		diskFile.log.WithError(fsyncErr).Warnf("fsync of directory %s failed", diskFile.datadir)
	}

	err = diskFile.chown(diskFile.objectPath)
	if nil != err {
		return
	}

	if nil != diskFile.fp {
		// Still open on the replaced inode
		_ = diskFile.fp.Close()
		diskFile.fp = nil
	}

	diskFile.setMetadata(metadata, metastore.File)
	diskFile.dataFile = diskFile.objectPath

	stats.IncrementOperationsAndBytes(stats.DiskFilePut, uint64(metadata.ContentLength))

	return
}

// createIntermediateDirs materializes each segment of objPath as a marker directory,
// shallowest first.
func (diskFile *DiskFile) createIntermediateDirs() (err error) {
	if "" == diskFile.objPath {
		return
	}

	dirPath := diskFile.containerPath

	for _, segment := range strings.Split(diskFile.objPath, "/") {
		dirPath = filepath.Join(dirPath, segment)
		err = diskFile.createDirObject(dirPath, true)
		if nil != err {
			return
		}
	}

	return
}

// createDirObject ensures dirPath is a directory owned per the Config.
//
// A non-directory in the way is removed only if AllowFileToDirOverwrite. An intermediate
// directory lacking a valid record is given the default one; an existing valid record
// (e.g. of an explicit marker) is left alone.
func (diskFile *DiskFile) createDirObject(dirPath string, intermediate bool) (err error) {
	var (
		fileInfo os.FileInfo
		record   metastore.Record
		store    = diskFile.manager.store
	)

	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(dirPath)
		return
	})

	switch {
	case nil == err && fileInfo.IsDir():
		if intermediate {
			err = diskFile.execute(func() (err error) {
				record, err = store.Read(dirPath)
				return
			})
			if nil != err {
				return
			}
			if metastore.Validate(record) {
				return
			}
		}
	case nil == err:
		if !diskFile.manager.config.AllowFileToDirOverwrite {
			err = blunder.NewError(blunder.AlreadyExistsAsFileError, "%s already exists as a file", dirPath)
			return
		}
		diskFile.log.Errorf("Deleting file %s", dirPath)
		err = diskFile.execute(func() error {
			_ = store.Remove(dirPath)
			return os.Remove(dirPath)
		})
		if (nil != err) && !os.IsNotExist(err) {
			return
		}
		err = diskFile.mkdir(dirPath)
		if nil != err {
			return
		}
	case os.IsNotExist(err):
		err = diskFile.mkdir(dirPath)
		if nil != err {
			return
		}
	default:
		return
	}

	err = diskFile.chown(dirPath)
	if nil != err {
		return
	}

	if intermediate {
		err = diskFile.execute(func() (err error) {
			_, err = metastore.CreateObjectMetadata(store, dirPath)
			return
		})
	}

	return
}

func (diskFile *DiskFile) mkdir(dirPath string) (err error) {
	err = diskFile.execute(func() (err error) {
		err = os.Mkdir(dirPath, dirPerm)
		if os.IsExist(err) {
			// Lost a race with another request creating the same directory
			var fileInfo os.FileInfo
			fileInfo, err = os.Stat(dirPath)
			if (nil == err) && !fileInfo.IsDir() {
				err = blunder.NewError(blunder.AlreadyExistsAsFileError, "%s already exists as a file", dirPath)
			}
		}
		return
	})
	return
}

func (diskFile *DiskFile) chown(path string) (err error) {
	if (-1 == diskFile.uid) && (-1 == diskFile.gid) {
		return
	}
	err = diskFile.execute(func() error {
		return os.Chown(path, diskFile.uid, diskFile.gid)
	})
	return
}

// UnlinkOld removes the object if its stored timestamp is strictly older than timestamp.
//
// The stored record is re-read first so that a handle probed before another request's
// commit never removes the newer object. A marker directory is removed only if empty;
// a non-empty one is logged and left as is, returning unlinked == false without error.
func (diskFile *DiskFile) UnlinkOld(timestamp string) (unlinked bool, err error) {
	var (
		fileInfo        os.FileInfo
		normalized      string
		record          metastore.Record
		store           = diskFile.manager.store
		storedTimestamp string
	)

	normalized, err = metastore.NormalizeTimestamp(timestamp)
	if nil != err {
		return
	}

	err = diskFile.execute(func() (err error) {
		fileInfo, err = os.Stat(diskFile.objectPath)
		if nil != err {
			return
		}
		record, err = store.Read(diskFile.objectPath)
		return
	})
	if nil != err {
		if isAbsent(err) {
			diskFile.reset()
			err = nil
		}
		return
	}

	switch {
	case metastore.Validate(record):
		storedTimestamp = record[metastore.XTimestamp]
	case diskFile.hasMetadata:
		storedTimestamp = diskFile.metadata.Timestamp
	default:
		return
	}

	if storedTimestamp >= normalized {
		return
	}

	if fileInfo.IsDir() {
		err = diskFile.execute(func() error {
			return os.Remove(diskFile.objectPath)
		})
		if nil != err {
			if errors.Is(err, unix.ENOTEMPTY) || errors.Is(err, unix.EEXIST) {
				diskFile.log.WithError(err).Errorf("Unable to delete dir %s", diskFile.objectPath)
				stats.IncrementOperations(&stats.DiskFileUnlinkRefused)
				err = nil
				return
			}
			if !os.IsNotExist(err) {
				return
			}
		} else if forgetter, ok := store.(metastore.Forgetter); ok {
			forgetter.Forget(fileInfo)
		}
	} else {
		if nil != diskFile.fp {
			_ = diskFile.fp.Close()
			diskFile.fp = nil
		}
		err = diskFile.execute(func() error {
			_ = store.Remove(diskFile.objectPath)
			return os.Remove(diskFile.objectPath)
		})
		if (nil != err) && !os.IsNotExist(err) {
			return
		}
	}

	diskFile.reset()
	stats.IncrementOperations(&stats.DiskFileUnlinkOps)

	unlinked = true
	err = nil
	return
}

// Open (re)opens the descriptor on the object's file; a no-op for marker directories
// or when already open.
func (diskFile *DiskFile) Open() (err error) {
	var (
		file *os.File
	)

	if diskFile.isDir || (nil != diskFile.fp) {
		return
	}

	if "" == diskFile.dataFile {
		err = blunder.NewError(blunder.NotFoundError, "data file %s does not exist", diskFile.objectPath)
		return
	}

	err = diskFile.execute(func() (err error) {
		file, err = os.Open(diskFile.dataFile)
		return
	})
	if nil != err {
		if os.IsNotExist(err) {
			err = blunder.NewError(blunder.NotFoundError, "data file %s does not exist", diskFile.dataFile)
		}
		return
	}

	diskFile.fp = file

	return
}

// Close releases the descriptor, if open.
func (diskFile *DiskFile) Close() (err error) {
	if diskFile.isDir || (nil == diskFile.fp) {
		return
	}
	err = diskFile.fp.Close()
	diskFile.fp = nil
	return
}

// WriteTo copies the object's content to w.
func (diskFile *DiskFile) WriteTo(w io.Writer) (n int64, err error) {
	n, err = diskFile.WriteRangeTo(w, 0, -1)
	return
}

// WriteRangeTo copies bytes [start, stop) of the object's content to w in DiskChunkSize
// reads; a negative stop means end of file. For files larger than KeepCacheSize the
// pages read are dropped from the buffer cache behind the copy.
func (diskFile *DiskFile) WriteRangeTo(w io.Writer, start int64, stop int64) (n int64, err error) {
	var (
		fileInfo  os.FileInfo
		openedNow bool
	)

	if diskFile.isDir {
		return
	}

	if (0 > start) || ((0 <= stop) && (stop < start)) {
		err = blunder.NewError(blunder.InvalidArgError, "bad range [%d,%d)", start, stop)
		return
	}

	openedNow = (nil == diskFile.fp)

	err = diskFile.Open()
	if nil != err {
		return
	}
	fp := diskFile.fp

	if openedNow {
		defer func() {
			_ = diskFile.Close()
		}()
	}

	fileInfo, err = fp.Stat()
	if nil != err {
		return
	}

	size := fileInfo.Size()
	if (0 > stop) || (stop > size) {
		stop = size
	}

	dropCache := uint64(size) > diskFile.manager.config.KeepCacheSize
	buf := make([]byte, diskFile.manager.config.DiskChunkSize)

	for offset := start; offset < stop; {
		chunk := int64(len(buf))
		if chunk > (stop - offset) {
			chunk = stop - offset
		}

		var numRead int
		numRead, err = fp.ReadAt(buf[:chunk], offset)
		if 0 < numRead {
			numWritten, writeErr := w.Write(buf[:numRead])
			n += int64(numWritten)
			if nil != writeErr {
				err = writeErr
				return
			}
			if dropCache {
				_ = platform.DropBufferCache(fp, offset, int64(numRead))
			}
			offset += int64(numRead)
		}
		if nil != err {
			if io.EOF == err {
				err = nil
				break
			}
			return
		}
	}

	stats.IncrementOperationsAndBytes(stats.DiskFileRead, uint64(n))

	return
}
