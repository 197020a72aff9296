// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

// Program diskfilectl inspects and modifies objects kept by package diskfile beneath a
// mount root, using the same .conf file as the object server.
//
// Objects are addressed either as <device> <account> <container> <object> or, with
// --device, as a Swift path such as /v1/AUTH_test/photos/vacation/img1.jpg.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NVIDIA/swiftfs/blunder"

	// Logs the diskfile counters at [StatsLogger]Period and when the command finishes
	_ "github.com/NVIDIA/swiftfs/statslogger"
)

type optionsStruct struct {
	confFilePath  string
	confOverrides []string
	device        string
	dumpStats     bool

	contentType string
	timestamp   string
	metaPairs   []string
	inputPath   string
	outputPath  string
	start       int64
	stop        int64
}

func main() {
	err := newRootCmd().Execute()
	if nil != err {
		fmt.Fprintf(os.Stderr, "diskfilectl: %v (HTTP %d)\n", blunder.ErrorString(err), blunder.HTTPCode(err))
		os.Exit(1)
	}
}

func newRootCmd() (rootCmd *cobra.Command) {
	options := &optionsStruct{}

	rootCmd = &cobra.Command{
		Use:           "diskfilectl",
		Short:         "Inspect and modify objects stored beneath a diskfile mount root",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&options.confFilePath, "config", "c", "", "The .conf file holding the [DiskFile] section")
	rootCmd.PersistentFlags().StringArrayVarP(&options.confOverrides, "set", "s", nil, "A Section.Option=value override (may be repeated)")
	rootCmd.PersistentFlags().StringVarP(&options.device, "device", "d", "", "The device holding objects addressed by Swift path")
	rootCmd.PersistentFlags().BoolVar(&options.dumpStats, "stats", false, "Print the counters accumulated by the command")

	rootCmd.AddCommand(
		newStatCmd(options),
		newPutCmd(options),
		newPostCmd(options),
		newGetCmd(options),
		newDeleteCmd(options),
		newHaltLabelsCmd(),
	)

	return
}
