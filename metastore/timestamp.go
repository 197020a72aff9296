// Copyright (c) 2015-2021, NVIDIA CORPORATION.
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/swiftfs/blunder"
)

// TimestampFromTime formats t as a normalized timestamp (e.g. "1357924680.12345"),
// zero padded to 16 characters so that string order equals numeric order.
func TimestampFromTime(t time.Time) (timestamp string) {
	seconds := float64(t.UnixNano()) / float64(time.Second)
	timestamp = formatTimestamp(seconds)
	return
}

// NormalizeTimestamp parses a float seconds-since-epoch string and returns it normalized.
func NormalizeTimestamp(value string) (timestamp string, err error) {
	var (
		seconds float64
	)

	seconds, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
	if (nil != err) || math.IsNaN(seconds) || math.IsInf(seconds, 0) || (0 > seconds) {
		err = blunder.NewError(blunder.BadTimestampError, "bad timestamp \"%s\"", value)
		return
	}

	timestamp = formatTimestamp(seconds)
	err = nil
	return
}

func formatTimestamp(seconds float64) string {
	return fmt.Sprintf("%016.05f", seconds)
}
