// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package detection

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// DefaultBlocklist returns USB devices that are never synced. Syncing
// writes GET_SYNC to the port, which some flight controllers and radios
// take as input. Entries may use any form ParseVIDPID accepts.
func DefaultBlocklist() []string {
	return []string{}
}

// Prefixes a vendor or product id follows in the descriptors we meet:
// udev and lsusb style, config files and Windows hardware IDs.
var (
	vidMarkers = []string{"VID:", "VID=", "VID_", "VENDOR="}
	pidMarkers = []string{"PID:", "PID=", "PID_", "PRODUCT="}
)

// formatVIDPID renders a USB id pair as four uppercase hex digits each,
// e.g. "26AC:0011". It returns "" unless both ids are 16 bit hex numbers.
func formatVIDPID(vid, pid string) string {
	v, err := strconv.ParseUint(strings.TrimSpace(vid), 16, 16)
	if err != nil {
		return ""
	}
	p, err := strconv.ParseUint(strings.TrimSpace(pid), 16, 16)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04X:%04X", v, p)
}

// ParseVIDPID returns the canonical VID:PID of a descriptor such as
// "26ac:0011", "VID:26AC PID:0011", "vendor=26ac product=0011" or
// "USB\VID_26AC&PID_0011\5&2B3C". It returns "" when no pair is found.
func ParseVIDPID(descriptor string) string {
	d := strings.ToUpper(strings.TrimSpace(descriptor))

	vid, pid := afterMarker(d, vidMarkers), afterMarker(d, pidMarkers)
	if vid != "" && pid != "" {
		return formatVIDPID(vid, pid)
	}

	if v, p, ok := strings.Cut(d, ":"); ok && isHex(v) && isHex(p) {
		return formatVIDPID(v, p)
	}
	return ""
}

// afterMarker returns the hex digits following the first marker found.
func afterMarker(d string, markers []string) string {
	for _, m := range markers {
		if idx := strings.Index(d, m); idx >= 0 {
			return leadingHex(d[idx+len(m):])
		}
	}
	return ""
}

// leadingHex returns the run of hex digits at the start of s.
func leadingHex(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !isHexDigit(r) })
	if end < 0 {
		return s
	}
	return s[:end]
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func isHex(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !isHexDigit(r) }) < 0
}

// IsBlocked reports whether the USB id of a port is on the blocklist.
// Both sides are compared in canonical form.
func IsBlocked(vidpid string, blocklist []string) bool {
	id := ParseVIDPID(vidpid)
	if id == "" {
		return false
	}
	return slices.ContainsFunc(blocklist, func(entry string) bool {
		return ParseVIDPID(entry) == id
	})
}

// IsPathIgnored reports whether devicePath is on the ignore list. Paths
// are compared cleaned and case folded, so COM3 matches com3.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	want := normalizedPath(devicePath)
	return slices.ContainsFunc(ignorePaths, func(p string) bool {
		return p != "" && normalizedPath(p) == want
	})
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
