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

// Package uart provides the serial Link used to reach an OSD board over
// its USB CDC interface.
package uart

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"syscall"
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/internal/syncutil"
	"go.bug.st/serial"
)

// readChunk is how much is pulled from the driver per read.
const readChunk = 256

var errShortWrite = errors.New("short write")

// Transport is an osd.Link over a go.bug.st/serial port.
type Transport struct {
	port     serial.Port
	portName string
	rx       []byte
	mu       syncutil.Mutex
	gone     bool
	closed   bool
}

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// pollTimeout is the driver read timeout. It bounds how long Pending and
// a single Read poll may block.
func pollTimeout() time.Duration {
	if isWindows() {
		return 50 * time.Millisecond
	}
	return 10 * time.Millisecond
}

// New opens portName at the given line speed, 8N1.
func New(portName string, baud int) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(pollTimeout()); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return newTransport(port, portName), nil
}

func newTransport(port serial.Port, portName string) *Transport {
	return &Transport{
		port:     port,
		portName: portName,
	}
}

// Open is an osd.Opener for real serial ports.
func Open(path string, baud int) (osd.Link, error) {
	t, err := New(path, baud)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Write sends data in full and waits for it to leave the driver.
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkLocked(); err != nil {
		return err
	}

	for sent := 0; sent < len(data); {
		n, err := t.port.Write(data[sent:])
		if err != nil {
			return t.ioError("write", err)
		}
		if n == 0 {
			return t.ioError("write", errShortWrite)
		}
		sent += n
	}
	return t.drainWithRetry("write")
}

// Read blocks until n bytes arrived or ctx is done.
func (t *Transport) Read(ctx context.Context, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.rx) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.checkLocked(); err != nil {
			return nil, err
		}
		if err := t.fillLocked(); err != nil {
			return nil, err
		}
	}

	out := make([]byte, n)
	copy(out, t.rx)
	t.rx = t.rx[n:]
	return out, nil
}

// Pending returns the number of bytes that can be read without blocking.
// It may wait up to one driver poll for new data.
func (t *Transport) Pending() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkLocked(); err != nil {
		return 0, err
	}
	if err := t.fillLocked(); err != nil {
		return 0, err
	}
	return len(t.rx), nil
}

// DiscardInput drops buffered bytes and flushes the driver's input queue.
func (t *Transport) DiscardInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkLocked(); err != nil {
		return err
	}
	t.rx = t.rx[:0]
	if err := t.port.ResetInputBuffer(); err != nil {
		return t.ioError("discard input", err)
	}
	return nil
}

// Good reports whether the port is open and the device still attached.
func (t *Transport) Good() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil && !t.closed && !t.gone
}

// Close closes the transport connection. It is safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.port == nil {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil && !t.gone {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// Path returns the device path the transport was opened on.
func (t *Transport) Path() string {
	return t.portName
}

func (t *Transport) checkLocked() error {
	if t.port == nil || t.closed || t.gone {
		return fmt.Errorf("%s: %w", t.portName, osd.ErrNotConnected)
	}
	return nil
}

// fillLocked performs one driver read into the receive buffer. A read
// timeout is not an error.
func (t *Transport) fillLocked() error {
	var buf [readChunk]byte
	n, err := t.port.Read(buf[:])
	if err != nil {
		if isInterruptedSystemCall(err) {
			return nil
		}
		return t.ioError("read", err)
	}
	t.rx = append(t.rx, buf[:n]...)
	return nil
}

// ioError marks the link gone when err says the device disappeared.
func (t *Transport) ioError(op string, err error) error {
	if isDisconnect(err) {
		t.gone = true
		return fmt.Errorf("UART %s %s: %w: %w", op, t.portName, osd.ErrNotConnected, err)
	}
	return fmt.Errorf("UART %s %s: %w", op, t.portName, err)
}

// isDisconnect reports driver errors raised when the USB device is
// unplugged or re-enumerates.
func isDisconnect(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		//nolint:exhaustive // Only the codes that mean the device is gone
		switch portErr.Code() {
		case serial.PortClosed, serial.PortNotFound, serial.InvalidSerialPort:
			return true
		}
	}
	return osd.IsDeviceGone(err)
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EINTR) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(operation string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	for attempt := range maxRetries {
		err := t.port.Drain()
		if err == nil {
			return nil
		}

		if isInterruptedSystemCall(err) && attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms, 8ms
			continue
		}

		return t.ioError(operation+" drain", err)
	}

	return fmt.Errorf("UART %s drain failed after %d retries", operation, maxRetries)
}

// Ensure Transport implements osd.Link
var (
	_ osd.Link   = (*Transport)(nil)
	_ osd.Opener = Open
)
