// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/NVIDIA/swiftfs/blunder"
	"github.com/NVIDIA/swiftfs/conf"
	"github.com/NVIDIA/swiftfs/diskfile"
	"github.com/NVIDIA/swiftfs/halter"
	"github.com/NVIDIA/swiftfs/metastore"
	"github.com/NVIDIA/swiftfs/stats"
	"github.com/NVIDIA/swiftfs/transitions"
	"github.com/NVIDIA/swiftfs/utils"
)

const objectArgsUsage = "(<device> <account> <container> <object> | --device <device> <swift path>)"

func objectArgs(cmd *cobra.Command, args []string) (err error) {
	if (1 != len(args)) && (4 != len(args)) {
		err = fmt.Errorf("expected %s", objectArgsUsage)
	}
	return
}

func newStatCmd(options *optionsStruct) *cobra.Command {
	return &cobra.Command{
		Use:   "stat " + objectArgsUsage,
		Short: "Show an object's metadata (repairing it if missing or invalid)",
		Args:  objectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, options, args, false, func(diskFile *diskfile.DiskFile) error {
				return statObject(cmd.OutOrStdout(), diskFile)
			})
		},
	}
}

func newPutCmd(options *optionsStruct) (putCmd *cobra.Command) {
	putCmd = &cobra.Command{
		Use:   "put " + objectArgsUsage,
		Short: "Store an object from --input (default stdin); a directory content type creates a marker directory",
		Args:  objectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, options, args, false, func(diskFile *diskfile.DiskFile) error {
				return putObject(cmd, options, diskFile)
			})
		},
	}

	putCmd.Flags().StringVarP(&options.inputPath, "input", "i", "", "The file holding the object's content")
	putCmd.Flags().StringVarP(&options.contentType, "content-type", "t", "", "The object's Content-Type")
	putCmd.Flags().StringVar(&options.timestamp, "timestamp", "", "The write's timestamp in seconds (default now)")
	putCmd.Flags().StringArrayVarP(&options.metaPairs, "meta", "m", nil, "A Key=value metadata pair (may be repeated)")

	return
}

func newPostCmd(options *optionsStruct) (postCmd *cobra.Command) {
	postCmd = &cobra.Command{
		Use:   "post " + objectArgsUsage,
		Short: "Update an existing object's metadata",
		Args:  objectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, options, args, false, func(diskFile *diskfile.DiskFile) error {
				return postObject(cmd, options, diskFile)
			})
		},
	}

	postCmd.Flags().StringVarP(&options.contentType, "content-type", "t", "", "A replacement Content-Type")
	postCmd.Flags().StringVar(&options.timestamp, "timestamp", "", "The update's timestamp in seconds (default now)")
	postCmd.Flags().StringArrayVarP(&options.metaPairs, "meta", "m", nil, "A Key=value metadata pair (may be repeated)")

	return
}

func newGetCmd(options *optionsStruct) (getCmd *cobra.Command) {
	getCmd = &cobra.Command{
		Use:   "get " + objectArgsUsage,
		Short: "Copy an object's content (or the byte range [start,stop)) to --output (default stdout)",
		Args:  objectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, options, args, true, func(diskFile *diskfile.DiskFile) error {
				return getObject(cmd, options, diskFile)
			})
		},
	}

	getCmd.Flags().StringVarP(&options.outputPath, "output", "o", "", "The file to receive the content")
	getCmd.Flags().Int64Var(&options.start, "start", 0, "The first byte to copy")
	getCmd.Flags().Int64Var(&options.stop, "stop", -1, "The byte after the last to copy (-1 means end of object)")

	return
}

func newDeleteCmd(options *optionsStruct) (deleteCmd *cobra.Command) {
	deleteCmd = &cobra.Command{
		Use:   "delete " + objectArgsUsage,
		Short: "Remove an object unless it is newer than --timestamp",
		Args:  objectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, options, args, false, func(diskFile *diskfile.DiskFile) (err error) {
				timestamp, err := timestampOrNow(options.timestamp)
				if nil != err {
					return
				}
				unlinked, err := diskFile.UnlinkOld(timestamp)
				if nil != err {
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unlinked: %v\n", unlinked)
				return
			})
		},
	}

	deleteCmd.Flags().StringVar(&options.timestamp, "timestamp", "", "The delete's timestamp in seconds (default now)")

	return
}

func newHaltLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "halt-labels",
		Short: "List the crash points that [Halter]ArmedTriggers may arm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			haltLabelStrings := halter.List()
			sort.Strings(haltLabelStrings)
			for _, haltLabelString := range haltLabelStrings {
				fmt.Fprintln(cmd.OutOrStdout(), haltLabelString)
			}
			return nil
		},
	}
}

func loadConfMap(options *optionsStruct) (confMap conf.ConfMap, err error) {
	if "" == options.confFilePath {
		err = fmt.Errorf("--config is required")
		return
	}

	confMap, err = conf.MakeConfMapFromFile(options.confFilePath)
	if nil != err {
		return
	}

	err = confMap.UpdateFromStrings(options.confOverrides)

	return
}

func resolveObject(options *optionsStruct, args []string) (device string, account string, container string, obj string, err error) {
	if 4 == len(args) {
		device, account, container, obj = args[0], args[1], args[2], args[3]
		return
	}

	if "" == options.device {
		err = fmt.Errorf("--device is required when addressing %s by Swift path", args[0])
		return
	}

	account, container, obj, err = utils.PathToAcctContObj(args[0])
	if nil != err {
		return
	}
	if ("" == container) || ("" == obj) {
		err = fmt.Errorf("%s does not name an object", args[0])
		return
	}

	device = options.device

	return
}

// withObject brings the packages up for the duration of one command and hands fn a
// freshly probed handle on the addressed object.
func withObject(cmd *cobra.Command, options *optionsStruct, args []string, keepDataFP bool, fn func(diskFile *diskfile.DiskFile) error) (err error) {
	var (
		account   string
		confMap   conf.ConfMap
		container string
		device    string
		diskFile  *diskfile.DiskFile
		manager   *diskfile.Manager
		obj       string
	)

	device, account, container, obj, err = resolveObject(options, args)
	if nil != err {
		return
	}

	confMap, err = loadConfMap(options)
	if nil != err {
		return
	}

	err = transitions.Up(confMap)
	if nil != err {
		return
	}
	defer func() {
		downErr := transitions.Down(confMap)
		if nil == err {
			err = downErr
		}
	}()

	manager, err = diskfile.NewManagerFromConfMap(confMap)
	if nil != err {
		return
	}
	defer manager.Close()

	diskFile, err = manager.New(device, account, container, obj, keepDataFP)
	if nil != err {
		return
	}
	defer func() {
		_ = diskFile.Close()
	}()

	stopwatch := utils.NewStopwatch()

	err = fn(diskFile)

	stopwatch.Stop()

	if options.dumpStats {
		dumpStats(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "elapsed: %s\n", stopwatch.ElapsedString())
	}

	return
}

func dumpStats(w io.Writer) {
	statMap := stats.Dump()

	statNames := make([]string, 0, len(statMap))
	for statName := range statMap {
		statNames = append(statNames, statName)
	}
	sort.Strings(statNames)

	for _, statName := range statNames {
		fmt.Fprintf(w, "stat %s: %d\n", statName, statMap[statName])
	}
}

func timestampOrNow(value string) (timestamp string, err error) {
	if "" == value {
		timestamp = metastore.TimestampFromTime(time.Now())
		return
	}
	timestamp, err = metastore.NormalizeTimestamp(value)
	return
}

func parseMetaPairs(metaPairs []string) (extra map[string]string, err error) {
	extra = make(map[string]string, len(metaPairs))

	for _, metaPair := range metaPairs {
		key, value, found := strings.Cut(metaPair, "=")
		if !found || ("" == key) {
			err = fmt.Errorf("metadata %q is not of the form Key=value", metaPair)
			return
		}
		extra[key] = value
	}

	return
}

func statObject(w io.Writer, diskFile *diskfile.DiskFile) (err error) {
	fmt.Fprintf(w, "path: %s\n", diskFile.Path())
	fmt.Fprintf(w, "deleted: %v\n", diskFile.IsDeleted())

	metadata, ok := diskFile.Metadata()
	if !ok {
		return
	}

	size, err := diskFile.DataFileSize()
	if nil != err {
		return
	}

	// Re-read in case DataFileSize() corrected the recorded length
	metadata, _ = diskFile.Metadata()

	fmt.Fprintf(w, "dir: %v\n", diskFile.IsDir())
	fmt.Fprintf(w, "repaired: %v\n", diskFile.Repaired())
	fmt.Fprintf(w, "size: %d\n", size)
	fmt.Fprintf(w, "content-type: %s\n", metadata.ContentType)
	fmt.Fprintf(w, "content-length: %d\n", metadata.ContentLength)
	fmt.Fprintf(w, "timestamp: %s\n", metadata.Timestamp)
	fmt.Fprintf(w, "etag: %s\n", metadata.ETag)

	keys := make([]string, 0, len(metadata.Extra))
	for key := range metadata.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "%s: %s\n", key, metadata.Extra[key])
	}

	return
}

func putObject(cmd *cobra.Command, options *optionsStruct, diskFile *diskfile.DiskFile) (err error) {
	var (
		input    io.Reader
		metadata diskfile.Metadata
	)

	metadata.ContentType = options.contentType

	metadata.Timestamp, err = timestampOrNow(options.timestamp)
	if nil != err {
		return
	}

	metadata.Extra, err = parseMetaPairs(options.metaPairs)
	if nil != err {
		return
	}

	if objectType, _ := metastore.ObjectTypeFor(options.contentType); metastore.MarkerDir == objectType {
		metadata.ContentLength = 0
		metadata.ETag = metastore.EmptyETag
		err = diskFile.Put(nil, "", metadata, diskfile.WriteData)
		if nil == err {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: marker directory at %s\n", diskFile.Path(), metadata.Timestamp)
		}
		return
	}

	if "" == options.inputPath {
		input = cmd.InOrStdin()
	} else {
		inputFile, openErr := os.Open(options.inputPath)
		if nil != openErr {
			err = openErr
			return
		}
		defer inputFile.Close()
		input = inputFile
	}

	tempFile, err := diskFile.Mkstemp()
	if nil != err {
		return
	}
	defer tempFile.Release()

	hash := md5.New()

	metadata.ContentLength, err = io.Copy(io.MultiWriter(tempFile.File, hash), input)
	if nil != err {
		return
	}
	metadata.ETag = hex.EncodeToString(hash.Sum(nil))

	err = diskFile.Put(tempFile.File, tempFile.Path, metadata, diskfile.WriteData)
	if nil != err {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes at %s etag %s\n", diskFile.Path(), metadata.ContentLength, metadata.Timestamp, metadata.ETag)

	return
}

func postObject(cmd *cobra.Command, options *optionsStruct, diskFile *diskfile.DiskFile) (err error) {
	var (
		extra map[string]string
	)

	current, ok := diskFile.Metadata()
	if !ok {
		err = blunder.NewError(blunder.NotFoundError, "object %s does not exist", diskFile.Path())
		return
	}

	extra, err = parseMetaPairs(options.metaPairs)
	if nil != err {
		return
	}

	update := current.Clone()
	update.Timestamp, err = timestampOrNow(options.timestamp)
	if nil != err {
		return
	}
	if "" != options.contentType {
		update.ContentType = options.contentType
	}
	if nil == update.Extra {
		update.Extra = make(map[string]string, len(extra))
	}
	for key, value := range extra {
		update.Extra[key] = value
	}

	err = diskFile.PutMetadata(update)
	if nil != err {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: metadata updated at %s\n", diskFile.Path(), update.Timestamp)

	return
}

func getObject(cmd *cobra.Command, options *optionsStruct, diskFile *diskfile.DiskFile) (err error) {
	var (
		output io.Writer
	)

	if diskFile.IsDeleted() {
		err = blunder.NewError(blunder.NotFoundError, "object %s does not exist", diskFile.Path())
		return
	}

	if "" == options.outputPath {
		output = cmd.OutOrStdout()
	} else {
		outputFile, createErr := os.Create(options.outputPath)
		if nil != createErr {
			err = createErr
			return
		}
		defer func() {
			closeErr := outputFile.Close()
			if nil == err {
				err = closeErr
			}
		}()
		output = outputFile
	}

	_, err = diskFile.WriteRangeTo(output, options.start, options.stop)

	return
}
