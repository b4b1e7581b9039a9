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

package testing

import (
	"io"
	"math/rand/v2"
	"time"
)

// usbPacketSize is the full-speed CDC bulk packet size.
const usbPacketSize = 64

// JitterConfig configures the behavior of JitteryConnection.
type JitterConfig struct {
	MaxLatencyMs      int
	FragmentMinBytes  int
	StallAfterBytes   int
	StallDuration     time.Duration
	Seed              uint64
	FragmentReads     bool
	USBBoundaryStress bool
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatencyMs:     2,
		FragmentReads:    true,
		FragmentMinBytes: 1,
	}
}

// JitteryConnection wraps the wire of a virtual board the way a USB CDC
// link delivers it: reads arrive late and in arbitrary fragments, without
// losing bytes. Writes pass through unchanged.
type JitteryConnection struct {
	backend             io.ReadWriter
	rng                 *rand.Rand
	readBuf             []byte
	config              JitterConfig
	bytesReadSinceStall int
	stallTriggered      bool
}

// NewJitteryConnection wraps backend with jitter simulation.
func NewJitteryConnection(backend io.ReadWriter, config JitterConfig) *JitteryConnection {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}

	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}

	return &JitteryConnection{
		backend: backend,
		config:  config,
		rng:     rng,
		readBuf: make([]byte, 0, ParamsSize),
	}
}

// Write passes writes through to the backend.
func (j *JitteryConnection) Write(data []byte) (int, error) {
	return j.backend.Write(data) //nolint:wrapcheck // Pass-through wrapper
}

// Read returns between FragmentMinBytes and len(buf) buffered bytes after
// a random delay. It returns 0, nil when the board has nothing queued.
//
//nolint:gocognit,gocyclo,cyclop,revive // Jitter simulation inherently requires multiple conditions
func (j *JitteryConnection) Read(buf []byte) (int, error) {
	if j.config.MaxLatencyMs > 0 {
		delay := time.Duration(j.rng.IntN(j.config.MaxLatencyMs+1)) * time.Millisecond
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if len(j.readBuf) == 0 {
		tempBuf := make([]byte, ParamsSize)
		bytesRead, err := j.backend.Read(tempBuf)
		if err != nil {
			return 0, err //nolint:wrapcheck // Pass-through wrapper
		}
		if bytesRead == 0 {
			return 0, nil
		}
		j.readBuf = append(j.readBuf, tempBuf[:bytesRead]...)
	}

	toReturn := min(len(j.readBuf), len(buf))

	if j.config.StallAfterBytes > 0 && !j.stallTriggered {
		if j.bytesReadSinceStall >= j.config.StallAfterBytes {
			j.stallTriggered = true
			if j.config.StallDuration > 0 {
				time.Sleep(j.config.StallDuration)
			}
		} else {
			toReturn = min(toReturn, j.config.StallAfterBytes-j.bytesReadSinceStall)
		}
	}

	if j.config.USBBoundaryStress && toReturn > 0 {
		nextBoundary := (j.bytesReadSinceStall/usbPacketSize + 1) * usbPacketSize
		if untilBoundary := nextBoundary - j.bytesReadSinceStall; untilBoundary < toReturn {
			toReturn = untilBoundary
		}
	}

	if j.config.FragmentReads && toReturn > j.config.FragmentMinBytes {
		minReturn := j.config.FragmentMinBytes
		toReturn = minReturn + j.rng.IntN(toReturn-minReturn+1)
	}

	copy(buf, j.readBuf[:toReturn])
	j.readBuf = j.readBuf[toReturn:]
	j.bytesReadSinceStall += toReturn
	return toReturn, nil
}

// Buffered returns the number of bytes held back from earlier reads.
func (j *JitteryConnection) Buffered() int {
	return len(j.readBuf)
}

// ResetStallState resets the stall tracking state.
func (j *JitteryConnection) ResetStallState() {
	j.bytesReadSinceStall = 0
	j.stallTriggered = false
}

// ClearBuffer clears any buffered read data.
func (j *JitteryConnection) ClearBuffer() {
	j.readBuf = j.readBuf[:0]
}
