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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		devicePath  string
		ignorePaths []string
		expected    bool
	}{
		{name: "empty ignore list", devicePath: "/dev/ttyACM0", ignorePaths: []string{}, expected: false},
		{name: "empty device path", devicePath: "", ignorePaths: []string{"/dev/ttyACM0"}, expected: false},
		{name: "exact match unix path", devicePath: "/dev/ttyACM0", ignorePaths: []string{"/dev/ttyACM0"}, expected: true},
		{name: "exact match windows path", devicePath: "COM3", ignorePaths: []string{"COM3"}, expected: true},
		{name: "case insensitive match", devicePath: "/dev/ttyACM0", ignorePaths: []string{"/DEV/TTYACM0"}, expected: true},
		{name: "windows case insensitive", devicePath: "com3", ignorePaths: []string{"COM3"}, expected: true},
		{name: "no match", devicePath: "/dev/ttyACM1", ignorePaths: []string{"/dev/ttyACM0"}, expected: false},
		{
			name:        "multiple paths with match",
			devicePath:  "/dev/ttyACM1",
			ignorePaths: []string{"/dev/ttyACM0", "/dev/ttyACM1", "COM2"},
			expected:    true,
		},
		{
			name:        "path with relative components",
			devicePath:  "/dev/../dev/ttyACM0",
			ignorePaths: []string{"/dev/ttyACM0"},
			expected:    true,
		},
		{
			name:        "empty strings in ignore list",
			devicePath:  "/dev/ttyACM0",
			ignorePaths: []string{"", "/dev/ttyACM0", ""},
			expected:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsPathIgnored(tt.devicePath, tt.ignorePaths))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	blocklist := []string{"26ac:0011", "ABCD:EF01"}

	tests := []struct {
		name    string
		vidpid  string
		blocked bool
	}{
		{"Exact match lowercase list entry", "26AC:0011", true},
		{"Exact match uppercase", "ABCD:EF01", true},
		{"Case insensitive", "abcd:ef01", true},
		{"Not in blocklist", "9999:9999", false},
		{"Empty string", "", false},
		{"Partial match", "26AC:", false},
		{"With whitespace", "  26AC:0011  ", true},
		{"Other descriptor form", "VID:26AC PID:0011", true},
		{"Short id padded", "26ac:11", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.blocked, IsBlocked(tc.vidpid, blocklist))
		})
	}
}

func TestParseVIDPID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		descriptor string
		expected   string
	}{
		{"Simple format", "1234:5678", "1234:5678"},
		{"VID:PID format", "VID:1234 PID:5678", "1234:5678"},
		{"VID=PID= format", "VID=1234 PID=5678", "1234:5678"},
		{"Vendor Product format", "vendor=1234 product=5678", "1234:5678"},
		{"Windows hardware ID", `USB\VID_26AC&PID_0011\5&2B3C`, "26AC:0011"},
		{"Mixed case", "vid:abcd pid:ef01", "ABCD:EF01"},
		{"Invalid format", "not a valid descriptor", ""},
		{"Empty string", "", ""},
		{"Only VID", "VID:1234", ""},
		{"Only PID", "PID:5678", ""},
		{"Short ids padded", "403:6001", "0403:6001"},
		{"Too wide", "12345:6789", ""},
		{"Surrounding space", "  26ac:0011 ", "26AC:0011"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ParseVIDPID(tc.descriptor))
		})
	}
}

func TestLeadingHex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple hex", "1234", "1234"},
		{"Stops at separator", "26AC&PID_0011", "26AC"},
		{"Hex with prefix 0x", "0x1234", "0"},
		{"Leading space", " 1234", ""},
		{"No hex", "xyz", ""},
		{"Empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, leadingHex(tc.input))
		})
	}
}

func TestFormatVIDPID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "26AC:0011", formatVIDPID("26ac", "0011"))
	assert.Equal(t, "0403:6001", formatVIDPID("403", "6001"))
	assert.Equal(t, "1A86:7523", formatVIDPID(" 1a86\n", "7523"))
	assert.Empty(t, formatVIDPID("12345", "0011"))
	assert.Empty(t, formatVIDPID("", "0011"))
	assert.Empty(t, formatVIDPID("26AC", "zz"))
}

func TestIsHex(t *testing.T) {
	t.Parallel()

	assert.True(t, isHex("1234ABCD"))
	assert.True(t, isHex("abcdef"))
	assert.False(t, isHex("123G"))
	assert.False(t, isHex(""))
	assert.False(t, isHex("12 34"))
}

func TestIsBlockedAcceptsAnyListForm(t *testing.T) {
	t.Parallel()

	blocklist := []string{"vendor=1a86 product=7523", `USB\VID_0403&PID_6001`}
	assert.True(t, IsBlocked("1A86:7523", blocklist))
	assert.True(t, IsBlocked("0403:6001", blocklist))
	assert.False(t, IsBlocked("26AC:0011", blocklist))
}
