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

// Package osd speaks the bootloader and parameter protocols of OSD boards
// attached over USB serial.
package osd

import "context"

// DefaultBaud is the line speed of the OSD USB-serial interface.
const DefaultBaud = 115200

// Link is a byte stream to one serial device. A Link is owned by a single
// Session at a time.
//
// Once the device has gone away Good reports false and every other call
// fails without blocking.
type Link interface {
	// Write sends p in full.
	Write(p []byte) error

	// Read blocks until exactly n bytes arrived, the link failed, or ctx
	// expired.
	Read(ctx context.Context, n int) ([]byte, error)

	// Pending returns the number of received bytes that can be read
	// without blocking.
	Pending() (int, error)

	// DiscardInput drops everything received but not yet read.
	DiscardInput() error

	// Good reports whether the device is still attached.
	Good() bool

	// Close releases the port. It is safe to call more than once.
	Close() error

	// Path returns the device path the link was opened on.
	Path() string
}

// Opener opens the serial device at path and sets its line speed.
type Opener func(path string, baud int) (Link, error)
