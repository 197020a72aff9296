// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"fmt"
	"os"
	"sync"

	"github.com/NVIDIA/swiftfs/platform"
)

type fileIDStruct struct {
	dev uint64
	ino uint64
}

// MemoryStore keeps records in process memory keyed by (device, inode) so that, like an
// extended attribute, a record follows its entry across rename.
//
// Records are not discarded when their entry is unlinked; callers deleting entries
// should Remove() first, or Forget() once a directory is gone, or risk a recycled
// inode inheriting a stale record.
type MemoryStore struct {
	sync.Mutex
	records map[fileIDStruct]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[fileIDStruct]Record)}
}

func fileIDOf(path string) (fileID fileIDStruct, err error) {
	fileInfo, err := os.Stat(path)
	if nil != err {
		return
	}
	dev, ino, ok := platform.FileID(fileInfo)
	if !ok {
		err = fmt.Errorf("no inode identity available for %s", path)
		return
	}
	fileID = fileIDStruct{dev: dev, ino: ino}
	return
}

func (store *MemoryStore) Read(path string) (record Record, err error) {
	fileID, err := fileIDOf(path)
	if nil != err {
		return
	}

	store.Lock()
	record = store.records[fileID].Clone()
	store.Unlock()

	return
}

func (store *MemoryStore) Write(path string, record Record) (err error) {
	fileID, err := fileIDOf(path)
	if nil != err {
		return
	}

	store.Lock()
	store.records[fileID] = record.Clone()
	store.Unlock()

	return
}

func (store *MemoryStore) Remove(path string) (err error) {
	fileID, err := fileIDOf(path)
	if nil != err {
		return
	}

	store.Lock()
	delete(store.records, fileID)
	store.Unlock()

	return
}

// Forget drops the record of an entry that no longer exists.
func (store *MemoryStore) Forget(fileInfo os.FileInfo) {
	dev, ino, ok := platform.FileID(fileInfo)
	if !ok {
		return
	}

	store.Lock()
	delete(store.records, fileIDStruct{dev: dev, ino: ino})
	store.Unlock()
}

// Len returns the number of records held.
func (store *MemoryStore) Len() (numRecords int) {
	store.Lock()
	numRecords = len(store.records)
	store.Unlock()
	return
}
