// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package stats

// NOTE: These are all counters of the form <package>.<operation>[.<qualifier>]

var (
	DiskFilePutOps          = "diskfile.put.operations"
	DiskFilePutBytes        = "diskfile.put.bytes"
	DiskFilePutMetadataOps  = "diskfile.put_metadata.operations"
	DiskFilePutMarkerOps    = "diskfile.put_marker.operations"
	DiskFileUnlinkOps       = "diskfile.unlink.operations"
	DiskFileUnlinkRefused   = "diskfile.unlink.refused"
	DiskFileMetadataRepairs = "diskfile.metadata.repairs"
	DiskFileSizeRepairs     = "diskfile.size.repairs"
	DiskFileReadOps         = "diskfile.read.operations"
	DiskFileReadBytes       = "diskfile.read.bytes"
)
