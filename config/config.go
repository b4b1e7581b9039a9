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

// Package config loads the loader's YAML configuration file.
package config

import (
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/detection"
	"github.com/ZaparooProject/go-osd/flasher"
)

// Config is the on-disk tool configuration. Every field is optional.
type Config struct {
	// Ports restricts discovery to these device paths, in order.
	Ports       []string `yaml:"ports"`
	IgnorePaths []string `yaml:"ignore_paths"`
	// Blocklist holds VID:PID pairs that are never probed.
	Blocklist []string `yaml:"blocklist"`
	// Enumerate adds the system port list to the default candidates.
	Enumerate bool `yaml:"enumerate"`
	Baud      int  `yaml:"baud"`

	Timeouts TimeoutsConfig `yaml:"timeouts_ms"`

	ChecksumPolicy string `yaml:"checksum_policy"`
	Debug          bool   `yaml:"debug"`
	SessionLog     string `yaml:"session_log"`
}

// TimeoutsConfig holds ceilings in milliseconds. Zero keeps the default.
type TimeoutsConfig struct {
	Sync        int `yaml:"sync"`
	Erase       int `yaml:"erase"`
	Settle      int `yaml:"settle"`
	Scan        int `yaml:"scan"`
	Reenumerate int `yaml:"reenumerate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Baud:           osd.DefaultBaud,
		ChecksumPolicy: flasher.ChecksumFatal.String(),
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// SessionTimeouts returns the protocol ceilings with configured overrides
// applied.
func (c *Config) SessionTimeouts() osd.Timeouts {
	t := osd.DefaultTimeouts()
	if c.Timeouts.Sync > 0 {
		t.Sync = ms(c.Timeouts.Sync)
	}
	if c.Timeouts.Erase > 0 {
		t.Erase = ms(c.Timeouts.Erase)
	}
	if c.Timeouts.Settle > 0 {
		t.Settle = ms(c.Timeouts.Settle)
	}
	return t
}

// LocatorOptions builds discovery options. Session options are appended
// after the configured timeouts.
func (c *Config) LocatorOptions(session ...osd.Option) detection.Options {
	opts := detection.DefaultOptions()
	opts.Ports = c.Ports
	opts.IgnorePaths = c.IgnorePaths
	opts.Blocklist = append(opts.Blocklist, c.Blocklist...)
	opts.Enumerate = c.Enumerate
	if c.Baud > 0 {
		opts.Baud = c.Baud
	}
	if c.Timeouts.Scan > 0 {
		opts.ScanTimeout = ms(c.Timeouts.Scan)
	}
	opts.SessionOptions = append([]osd.Option{osd.WithTimeouts(c.SessionTimeouts())}, session...)
	return opts
}

// FlasherOptions returns the flasher settings held in the configuration.
// It expects a validated configuration.
func (c *Config) FlasherOptions() []flasher.Option {
	policy, _ := flasher.ParseChecksumPolicy(c.ChecksumPolicy)
	opts := []flasher.Option{flasher.WithChecksumPolicy(policy)}
	if c.Timeouts.Reenumerate > 0 {
		opts = append(opts, flasher.WithReenumerateTimeout(ms(c.Timeouts.Reenumerate)))
	}
	return opts
}
