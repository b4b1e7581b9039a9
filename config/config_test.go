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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
ports:
  - /dev/ttyACM1
  - /dev/ttyUSB0
ignore_paths:
  - /dev/ttyACM9
blocklist:
  - "VID:1a86 PID:7523"
  - "0403:6001"
enumerate: true
timeouts_ms:
  sync: 500
  erase: 30000
  scan: 250
  reenumerate: 15000
checksum_policy: WARN
debug: true
session_log: osd.log
`

func TestParseSample(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"/dev/ttyACM1", "/dev/ttyUSB0"}, cfg.Ports)
	assert.Equal(t, []string{"/dev/ttyACM9"}, cfg.IgnorePaths)
	assert.Equal(t, []string{"1A86:7523", "0403:6001"}, cfg.Blocklist)
	assert.True(t, cfg.Enumerate)
	assert.Equal(t, osd.DefaultBaud, cfg.Baud)
	assert.Equal(t, "warn", cfg.ChecksumPolicy)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "osd.log", cfg.SessionLog)

	timeouts := cfg.SessionTimeouts()
	assert.Equal(t, 500*time.Millisecond, timeouts.Sync)
	assert.Equal(t, 30*time.Second, timeouts.Erase)
	assert.Equal(t, osd.DefaultTimeouts().Settle, timeouts.Settle)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, osd.DefaultTimeouts(), cfg.SessionTimeouts())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("port: /dev/ttyACM0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"negative baud", func(c *Config) { c.Baud = -1 }, "baud"},
		{"bad blocklist", func(c *Config) { c.Blocklist = []string{"nope"} }, "blocklist"},
		{"empty port", func(c *Config) { c.Ports = []string{""} }, "empty port"},
		{"duplicate port", func(c *Config) { c.Ports = []string{"/dev/ttyACM0", "/dev/ttyACM0"} }, "twice"},
		{"negative timeout", func(c *Config) { c.Timeouts.Erase = -5 }, "timeouts_ms.erase"},
		{"bad policy", func(c *Config) { c.ChecksumPolicy = "ignore" }, "checksum policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Blocklist:      []string{"vendor=26ac product=0011"},
		ChecksumPolicy: " Fatal ",
	}
	Normalize(cfg)

	assert.Equal(t, osd.DefaultBaud, cfg.Baud)
	assert.Equal(t, []string{"26AC:0011"}, cfg.Blocklist)
	assert.Equal(t, "fatal", cfg.ChecksumPolicy)

	Normalize(nil)
}

func TestLocatorOptions(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	opts := cfg.LocatorOptions(osd.WithTraceSize(8))
	assert.Equal(t, cfg.Ports, opts.Ports)
	assert.Equal(t, cfg.IgnorePaths, opts.IgnorePaths)
	assert.Contains(t, opts.Blocklist, "1A86:7523")
	assert.True(t, opts.Enumerate)
	assert.Equal(t, osd.DefaultBaud, opts.Baud)
	assert.Equal(t, 250*time.Millisecond, opts.ScanTimeout)
	assert.Len(t, opts.SessionOptions, 2)
	assert.Equal(t, detection.DefaultScanTimeout, Default().LocatorOptions().ScanTimeout)

	assert.Len(t, cfg.FlasherOptions(), 2)
	assert.Len(t, Default().FlasherOptions(), 1)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "osd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "osd.log", cfg.SessionLog)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("baud: -3\n"), 0o600))
	_, err = Load(bad)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), bad)
}
