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

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"syscall"
)

// Error categories
var (
	// Connection errors - the device is gone
	ErrNotConnected   = errors.New("not connected")
	ErrDeviceNotFound = errors.New("OSD device not found")

	// Protocol errors - the device answered, but not as expected
	ErrNoSync             = errors.New("expected INSYNC")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrTimeout            = errors.New("timed out waiting for device")

	// Transfer errors
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrIncompleteTransfer = errors.New("transfer incomplete")
	ErrImageTooLarge      = errors.New("firmware image larger than board flash")
)

// ProtocolError wraps a failed session operation with the port it ran on.
type ProtocolError struct {
	Err  error  // Underlying error
	Op   string // Operation that failed
	Port string // Device path
}

func (e *ProtocolError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// FileError reports a firmware or parameter file that could not be used.
type FileError struct {
	Err  error
	Op   string
	Path string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ChecksumMismatchError carries both sides of a failed firmware verify.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: image 0x%08X, board 0x%08X", e.Expected, e.Actual)
}

// Is makes ChecksumMismatchError match ErrChecksumMismatch.
func (*ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// IsRecoverable reports whether a probe failure only rules out the current
// candidate, so discovery may move on to the next one. Cancellation of the
// caller's context is never recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// IsRetryable reports whether repeating a device scan may succeed later,
// for example while the device re-enumerates.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, ErrNotConnected),
		errors.Is(err, ErrNoSync),
		errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}

// Windows error codes for device disconnection detection.
// These are defined here because they're not available on non-Windows platforms.
const (
	errAccessDenied syscall.Errno = 5   // ERROR_ACCESS_DENIED
	errGenFailure   syscall.Errno = 31  // ERROR_GEN_FAILURE
	errNoSuchDevice syscall.Errno = 433 // ERROR_NO_SUCH_DEVICE
)

// IsDeviceGone reports OS level errors raised when a USB device is
// unplugged or re-enumerates during I/O.
func IsDeviceGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConnected) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}

		if runtime.GOOS == "windows" {
			//nolint:exhaustive // Only checking specific device-gone errors, not all errno values
			switch errno {
			case errAccessDenied, errGenFailure, errNoSuchDevice:
				return true
			}
		}
	}
	return false
}
