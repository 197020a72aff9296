// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package diskfile

import (
	"strconv"

	"github.com/NVIDIA/swiftfs/metastore"
)

// Clone returns a copy of metadata whose Extra map may be modified independently.
func (metadata Metadata) Clone() (clone Metadata) {
	clone = metadata
	if nil != metadata.Extra {
		clone.Extra = make(map[string]string, len(metadata.Extra))
		for k, v := range metadata.Extra {
			clone.Extra[k] = v
		}
	}
	return
}

// toRecord produces the persisted form of metadata tagged with objectType.
func (metadata Metadata) toRecord(objectType string) (record metastore.Record) {
	record = make(metastore.Record, len(metadata.Extra)+6)

	for k, v := range metadata.Extra {
		record[k] = v
	}

	record[metastore.XContentType] = metadata.ContentType
	if 0 <= metadata.ContentLength {
		record[metastore.XContentLength] = strconv.FormatInt(metadata.ContentLength, 10)
	} else {
		delete(record, metastore.XContentLength)
	}
	record[metastore.XTimestamp] = metadata.Timestamp
	record[metastore.XETag] = metadata.ETag
	record[metastore.XType] = metastore.Object
	record[metastore.XObjectType] = objectType

	return
}

// fromRecord splits a persisted record into caller-visible Metadata and its object type.
func fromRecord(record metastore.Record) (metadata Metadata, objectType string) {
	metadata.ContentLength = -1
	metadata.Extra = make(map[string]string)

	for k, v := range record {
		switch k {
		case metastore.XContentType:
			metadata.ContentType = v
		case metastore.XContentLength:
			contentLength, err := strconv.ParseInt(v, 10, 64)
			if (nil == err) && (0 <= contentLength) {
				metadata.ContentLength = contentLength
			}
		case metastore.XTimestamp:
			metadata.Timestamp = v
		case metastore.XETag:
			metadata.ETag = v
		case metastore.XType:
			// internal only
		case metastore.XObjectType:
			objectType = v
		default:
			metadata.Extra[k] = v
		}
	}

	return
}

// prepareMetadata normalizes the content type and timestamp of caller supplied metadata
// and decides the object type it describes.
func prepareMetadata(metadata Metadata) (prepared Metadata, objectType string, err error) {
	prepared = metadata.Clone()

	objectType, prepared.ContentType = metastore.ObjectTypeFor(metadata.ContentType)

	prepared.Timestamp, err = metastore.NormalizeTimestamp(metadata.Timestamp)

	return
}
