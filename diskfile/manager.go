// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/NVIDIA/swiftfs/blunder"
	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/logger"
	"github.com/NVIDIA/swiftfs/metastore"
)

// Manager builds DiskFile handles sharing one Config, metadata Store, Dispatcher and logger.
type Manager struct {
	config     Config
	store      metastore.Store
	dispatcher Dispatcher
	log        logrus.FieldLogger
}

// NewManager assembles a Manager from explicit collaborators. A nil dispatcher runs
// calls inline and a nil log means logger.PackageLogger("diskfile").
func NewManager(config Config, store metastore.Store, dispatcher Dispatcher, log logrus.FieldLogger) (manager *Manager) {
	if nil == dispatcher {
		dispatcher = InlineDispatcher{}
	}
	if nil == log {
		log = logger.PackageLogger("diskfile")
	}

	manager = &Manager{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}

	return
}

// NewManagerFromConfMap parses [DiskFile], verifies MountRoot and builds the configured
// Store and Dispatcher. Callers should Close() the Manager when done.
func NewManagerFromConfMap(confMap conf.ConfMap) (manager *Manager, err error) {
	var (
		config     Config
		dispatcher Dispatcher
		fileInfo   os.FileInfo
		store      metastore.Store
		supported  bool
	)

	config, err = ParseConfig(confMap)
	if nil != err {
		return
	}

	fileInfo, err = os.Stat(config.MountRoot)
	if nil != err {
		err = fmt.Errorf("[DiskFile]MountRoot %s unusable: %v", config.MountRoot, err)
		return
	}
	if !fileInfo.IsDir() {
		err = fmt.Errorf("[DiskFile]MountRoot %s is not a directory", config.MountRoot)
		return
	}

	store, err = metastore.NewStore(config.MetadataStore)
	if nil != err {
		return
	}

	if _, isXattrStore := store.(*metastore.XattrStore); isXattrStore {
		supported, err = metastore.XattrSupported(config.MountRoot)
		if nil != err {
			return
		}
		if !supported {
			err = fmt.Errorf("[DiskFile]MountRoot %s does not support user extended attributes (consider [DiskFile]MetadataStore=%s)", config.MountRoot, metastore.MemoryStoreKind)
			return
		}
	}

	if 0 == config.DispatcherWorkers {
		dispatcher = InlineDispatcher{}
	} else {
		dispatcher = NewPoolDispatcher(int(config.DispatcherWorkers))
	}

	manager = NewManager(config, store, dispatcher, logger.PackageLogger("diskfile"))

	logger.Infof("diskfile: serving %s (metadata store %s, %d dispatcher workers)", config.MountRoot, config.MetadataStore, config.DispatcherWorkers)

	err = nil
	return
}

// Config returns the Manager's configuration.
func (manager *Manager) Config() Config {
	return manager.config
}

// Close stops a PoolDispatcher owned by the Manager.
func (manager *Manager) Close() {
	if poolDispatcher, ok := manager.dispatcher.(*PoolDispatcher); ok {
		poolDispatcher.Stop()
	}
}

// New resolves (device, account, container, obj) and probes the filesystem.
//
// Leading and trailing '/' are stripped from obj. An absent object yields a handle for
// which IsDeleted() is true; a present one has its metadata loaded, repairing a missing
// or invalid record first. For files the descriptor is closed again unless keepDataFP.
func (manager *Manager) New(device string, account string, container string, obj string, keepDataFP bool) (diskFile *DiskFile, err error) {
	var (
		objName string
		objPath string
	)

	if !segmentOK(device) {
		err = blunder.NewError(blunder.BadObjectNameError, "bad device name \"%s\"", device)
		return
	}
	if "" == account {
		err = blunder.NewError(blunder.BadObjectNameError, "empty account name")
		return
	}
	if !segmentOK(container) || (manager.config.TmpDirName == container) {
		err = blunder.NewError(blunder.BadObjectNameError, "bad container name \"%s\"", container)
		return
	}

	objPath, objName, err = splitObjectName(obj)
	if nil != err {
		return
	}

	diskFile = &DiskFile{
		manager:       manager,
		log:           manager.log.WithFields(logrus.Fields{"device": device, "container": container, "object": obj}),
		device:        device,
		account:       account,
		container:     container,
		objPath:       objPath,
		obj:           objName,
		devicePath:    filepath.Join(manager.config.MountRoot, device),
		containerPath: filepath.Join(manager.config.MountRoot, device, container),
		tmpDir:        filepath.Join(manager.config.MountRoot, device, manager.config.TmpDirName),
		uid:           manager.config.UID,
		gid:           manager.config.GID,
		isValid:       true,
	}
	if "" == objPath {
		diskFile.name = container
	} else {
		diskFile.name = container + "/" + objPath
	}
	diskFile.datadir = filepath.Join(diskFile.devicePath, filepath.FromSlash(diskFile.name))
	diskFile.objectPath = filepath.Join(diskFile.datadir, objName)

	err = diskFile.probe(keepDataFP)
	if nil != err {
		diskFile = nil
	}

	return
}

// splitObjectName strips leading/trailing '/' from obj and splits off its final segment.
func splitObjectName(obj string) (objPath string, objName string, err error) {
	trimmed := strings.Trim(obj, "/")
	if "" == trimmed {
		err = blunder.NewError(blunder.BadObjectNameError, "bad object name \"%s\"", obj)
		return
	}

	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if !segmentOK(segment) {
			err = blunder.NewError(blunder.BadObjectNameError, "bad object name \"%s\"", obj)
			return
		}
	}

	objName = segments[len(segments)-1]
	objPath = strings.Join(segments[:len(segments)-1], "/")

	return
}

func segmentOK(segment string) bool {
	return ("" != segment) && ("." != segment) && (".." != segment) && !strings.Contains(segment, "/") && !strings.ContainsRune(segment, 0)
}
