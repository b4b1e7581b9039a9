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

package osd

import "time"

// Timeouts bounds every wait of a session.
type Timeouts struct {
	// Sync is how long an acknowledgement may take to arrive.
	Sync time.Duration
	// Erase is how long a chip erase may run before its ack is read anyway.
	Erase time.Duration
	// Settle is the window after a reboot request during which leftover
	// bytes are drained.
	Settle time.Duration
	// Read bounds a single payload read.
	Read time.Duration
}

// DefaultTimeouts returns the ceilings the OSD bootloader is known to meet.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Sync:   7 * time.Second,
		Erase:  20 * time.Second,
		Settle: time.Second,
		Read:   2 * time.Second,
	}
}

// Phase names the step a long running operation is in.
type Phase string

// Progress phases
const (
	PhaseErasing        Phase = "erasing"
	PhaseProgramming    Phase = "programming"
	PhaseVerifying      Phase = "verifying"
	PhaseRebooting      Phase = "rebooting"
	PhaseParamsUpload   Phase = "params_upload"
	PhaseParamsDownload Phase = "params_download"
)

// Progress is passed to a ProgressCallback after every transferred chunk.
type Progress struct {
	Phase       Phase
	Chunk       int
	TotalChunks int
	BytesDone   int
	BytesTotal  int
	Elapsed     time.Duration
}

// Percentage returns the share of bytes transferred, 0 to 100.
func (p Progress) Percentage() float64 {
	if p.BytesTotal == 0 {
		return 100
	}
	return float64(p.BytesDone) * 100 / float64(p.BytesTotal)
}

// ProgressCallback receives progress reports. It runs on the session's
// goroutine and should return quickly.
type ProgressCallback func(Progress)

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during transfers (optional)
	ProgressCallback ProgressCallback
	Timeouts         Timeouts
	// PollInterval is the sleep between checks for pending input
	PollInterval time.Duration
	// TraceSize is the number of link operations kept for error reports
	TraceSize int
}

func defaultConfig() Config {
	return Config{
		Timeouts:     DefaultTimeouts(),
		PollInterval: 5 * time.Millisecond,
		TraceSize:    defaultTraceSize,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithProgressCallback sets a callback to track transfer progress.
//
// Example:
//
//	s := osd.NewSession(link, osd.WithProgressCallback(func(p osd.Progress) {
//	    fmt.Printf("%s %.1f%%\n", p.Phase, p.Percentage())
//	}))
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithTimeouts replaces the wait ceilings. Zero fields keep their default.
func WithTimeouts(t Timeouts) Option {
	return func(c *Config) {
		if t.Sync > 0 {
			c.Timeouts.Sync = t.Sync
		}
		if t.Erase > 0 {
			c.Timeouts.Erase = t.Erase
		}
		if t.Settle > 0 {
			c.Timeouts.Settle = t.Settle
		}
		if t.Read > 0 {
			c.Timeouts.Read = t.Read
		}
	}
}

// WithPollInterval sets the sleep between checks for pending input.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithTraceSize sets how many link operations are attached to errors.
func WithTraceSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.TraceSize = n
		}
	}
}
