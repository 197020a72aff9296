// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"fmt"

	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/metastore"
)

const (
	DefaultTmpDirName    = "tmp"
	DefaultDiskChunkSize = uint64(65536)
	DefaultKeepCacheSize = uint64(5 * 1024 * 1024)
	DefaultUID           = -1 // leave ownership unchanged
	DefaultGID           = -1 // leave ownership unchanged
)

// Config holds the [DiskFile] section.
type Config struct {
	MountRoot               string
	TmpDirName              string
	DiskChunkSize           uint64
	KeepCacheSize           uint64
	UID                     int
	GID                     int
	AllowFileToDirOverwrite bool
	DispatcherWorkers       uint32
	MetadataStore           string
}

// DefaultConfig returns the Config used for options absent from a ConfMap.
func DefaultConfig(mountRoot string) Config {
	return Config{
		MountRoot:               mountRoot,
		TmpDirName:              DefaultTmpDirName,
		DiskChunkSize:           DefaultDiskChunkSize,
		KeepCacheSize:           DefaultKeepCacheSize,
		UID:                     DefaultUID,
		GID:                     DefaultGID,
		AllowFileToDirOverwrite: false,
		DispatcherWorkers:       0,
		MetadataStore:           metastore.XattrStoreKind,
	}
}

// ParseConfig reads the [DiskFile] section of confMap; only MountRoot is required.
func ParseConfig(confMap conf.ConfMap) (config Config, err error) {
	var (
		gid       int64
		mountRoot string
		uid       int64
	)

	mountRoot, err = confMap.FetchOptionValueString("DiskFile", "MountRoot")
	if nil != err {
		err = fmt.Errorf("confMap.FetchOptionValueString(\"DiskFile\", \"MountRoot\") failed: %v", err)
		return
	}
	if "" == mountRoot {
		err = fmt.Errorf("[DiskFile]MountRoot must not be empty")
		return
	}

	config = DefaultConfig(mountRoot)

	if optionPresent(confMap, "TmpDirName") {
		config.TmpDirName, err = confMap.FetchOptionValueString("DiskFile", "TmpDirName")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueString(\"DiskFile\", \"TmpDirName\") failed: %v", err)
			return
		}
		if !segmentOK(config.TmpDirName) {
			err = fmt.Errorf("[DiskFile]TmpDirName \"%s\" must be a single path segment", config.TmpDirName)
			return
		}
	}

	if optionPresent(confMap, "DiskChunkSize") {
		config.DiskChunkSize, err = confMap.FetchOptionValueUint64("DiskFile", "DiskChunkSize")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueUint64(\"DiskFile\", \"DiskChunkSize\") failed: %v", err)
			return
		}
		if 0 == config.DiskChunkSize {
			err = fmt.Errorf("[DiskFile]DiskChunkSize must be non-zero")
			return
		}
	}

	if optionPresent(confMap, "KeepCacheSize") {
		config.KeepCacheSize, err = confMap.FetchOptionValueUint64("DiskFile", "KeepCacheSize")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueUint64(\"DiskFile\", \"KeepCacheSize\") failed: %v", err)
			return
		}
	}

	if optionPresent(confMap, "UID") {
		uid, err = confMap.FetchOptionValueInt64("DiskFile", "UID")
		if (nil != err) || (-1 > uid) {
			err = fmt.Errorf("[DiskFile]UID must be -1 or a valid uid (err: %v)", err)
			return
		}
		config.UID = int(uid)
	}

	if optionPresent(confMap, "GID") {
		gid, err = confMap.FetchOptionValueInt64("DiskFile", "GID")
		if (nil != err) || (-1 > gid) {
			err = fmt.Errorf("[DiskFile]GID must be -1 or a valid gid (err: %v)", err)
			return
		}
		config.GID = int(gid)
	}

	if optionPresent(confMap, "AllowFileToDirOverwrite") {
		config.AllowFileToDirOverwrite, err = confMap.FetchOptionValueBool("DiskFile", "AllowFileToDirOverwrite")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueBool(\"DiskFile\", \"AllowFileToDirOverwrite\") failed: %v", err)
			return
		}
	}

	if optionPresent(confMap, "DispatcherWorkers") {
		config.DispatcherWorkers, err = confMap.FetchOptionValueUint32("DiskFile", "DispatcherWorkers")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueUint32(\"DiskFile\", \"DispatcherWorkers\") failed: %v", err)
			return
		}
	}

	if optionPresent(confMap, "MetadataStore") {
		config.MetadataStore, err = confMap.FetchOptionValueString("DiskFile", "MetadataStore")
		if nil != err {
			err = fmt.Errorf("confMap.FetchOptionValueString(\"DiskFile\", \"MetadataStore\") failed: %v", err)
			return
		}
		_, err = metastore.NewStore(config.MetadataStore)
		if nil != err {
			err = fmt.Errorf("[DiskFile]MetadataStore: %v", err)
			return
		}
	}

	err = nil
	return
}

func optionPresent(confMap conf.ConfMap, optionName string) (present bool) {
	section, ok := confMap["DiskFile"]
	if !ok {
		return
	}
	_, present = section[optionName]
	return
}
