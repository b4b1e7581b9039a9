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

// Package flasher runs the end to end operations of the loader: firmware
// upload through the bootloader, and parameter upload and download
// through the running OSD application.
package flasher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/detection"
	"github.com/rs/zerolog/log"
)

// ChecksumPolicy decides what a firmware checksum mismatch does.
type ChecksumPolicy int

const (
	// ChecksumFatal aborts the upload and leaves the board in the
	// bootloader.
	ChecksumFatal ChecksumPolicy = iota
	// ChecksumWarn logs the mismatch and reboots into the new firmware
	// anyway.
	ChecksumWarn
)

// String returns the policy name used in configuration files.
func (p ChecksumPolicy) String() string {
	switch p {
	case ChecksumFatal:
		return "fatal"
	case ChecksumWarn:
		return "warn"
	default:
		return fmt.Sprintf("ChecksumPolicy(%d)", int(p))
	}
}

// ParseChecksumPolicy parses "fatal" or "warn", ignoring case.
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "":
		return ChecksumFatal, nil
	case "warn":
		return ChecksumWarn, nil
	default:
		return ChecksumFatal, fmt.Errorf("unknown checksum policy %q", s)
	}
}

// Flasher drives the board found by a Locator.
type Flasher struct {
	locator     *detection.Locator
	sum         osd.ChecksumFunc
	reenumerate time.Duration
	policy      ChecksumPolicy
}

// Option configures a Flasher.
type Option func(*Flasher)

// WithChecksumPolicy sets what a checksum mismatch after programming does.
func WithChecksumPolicy(p ChecksumPolicy) Option {
	return func(f *Flasher) {
		f.policy = p
	}
}

// WithReenumerateTimeout bounds the wait for the board after the reboot
// into the bootloader.
func WithReenumerateTimeout(d time.Duration) Option {
	return func(f *Flasher) {
		if d > 0 {
			f.reenumerate = d
		}
	}
}

// WithChecksum replaces the image checksum. The board must compute the
// same function.
func WithChecksum(sum osd.ChecksumFunc) Option {
	return func(f *Flasher) {
		if sum != nil {
			f.sum = sum
		}
	}
}

// New creates a Flasher that finds the board with locator.
func New(locator *detection.Locator, opts ...Option) *Flasher {
	f := &Flasher{
		locator:     locator,
		sum:         osd.PX4Checksum,
		reenumerate: detection.DefaultReenumerateTimeout,
		policy:      ChecksumFatal,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FirmwareResult describes a completed firmware upload.
type FirmwareResult struct {
	// Port is where the bootloader was found.
	Port string
	// ImageSize is the firmware file length before padding.
	ImageSize     int
	FlashSize     int32
	BootloaderRev uint32
	BoardID       uint32
	ExpectedCRC   uint32
	// ChecksumOK is false only under ChecksumWarn after a mismatch.
	ChecksumOK bool
}

// UploadFirmware programs the firmware file at path. The file is read
// before the board is touched. The running application is asked to
// reboot into the bootloader, the board is found again after it
// re-enumerates, and the image is erased, programmed, verified and
// started.
func (f *Flasher) UploadFirmware(ctx context.Context, path string) (*FirmwareResult, error) {
	img, err := osd.ReadFirmware(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("bytes", img.Size).Msg("firmware loaded")

	session, err := f.enterBootloader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	result := &FirmwareResult{Port: session.Path(), ImageSize: img.Size}
	if err := f.describeBoard(ctx, session, result); err != nil {
		return nil, err
	}

	if err := img.Bind(result.FlashSize, f.sum); err != nil {
		return nil, &osd.FileError{Op: "load firmware", Path: path, Err: err}
	}
	result.ExpectedCRC = img.ExpectedCRC

	log.Info().Msg("erasing (please wait)")
	if err := session.Erase(ctx); err != nil {
		return nil, err
	}

	log.Info().Int("chunks", img.Chunks()).Msg("uploading firmware")
	if err := session.Program(ctx, img.Bytes); err != nil {
		return nil, err
	}

	result.ChecksumOK = true
	if err := session.Verify(ctx, img.ExpectedCRC); err != nil {
		if !errors.Is(err, osd.ErrChecksumMismatch) || f.policy == ChecksumFatal {
			return nil, err
		}
		result.ChecksumOK = false
		log.Warn().Err(err).Msg("firmware checksum mismatch, rebooting anyway")
	} else {
		log.Info().Uint32("crc", img.ExpectedCRC).Msg("uploaded firmware checksum matches file")
	}

	log.Info().Msg("rebooting the board")
	if err := session.Reboot(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// enterBootloader returns a session on the bootloader. A board already in
// its bootloader keeps answering on the same port; otherwise the session
// is closed so the board can re-enumerate and is located again.
func (f *Flasher) enterBootloader(ctx context.Context) (*osd.Session, error) {
	session, err := f.locator.FindDevice(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().Str("port", session.Path()).Msg("requesting reboot to bootloader")
	err = session.ForceBootloader(ctx)
	switch {
	case err == nil:
		ceiling := min(f.locator.ScanTimeout(), session.Timeouts().Sync)
		syncErr := session.SyncWithin(ctx, ceiling)
		if syncErr == nil {
			log.Info().Msg("board is already in its bootloader")
			return session, nil
		}
		if !osd.IsRecoverable(syncErr) {
			_ = session.Close()
			return nil, syncErr
		}
	case errors.Is(err, osd.ErrNotConnected):
		// The board dropped off the bus to reboot.
	default:
		_ = session.Close()
		return nil, err
	}

	_ = session.Close()
	log.Info().Msg("going down for a reboot to the bootloader")

	session, err = f.locator.AwaitReenumeration(ctx, f.reenumerate)
	if err != nil {
		return nil, err
	}
	log.Info().Str("port", session.Path()).Msg("re-enumeration OK")
	return session, nil
}

func (*Flasher) describeBoard(ctx context.Context, session *osd.Session, result *FirmwareResult) error {
	rev, err := session.BootloaderRevision(ctx)
	if err != nil {
		return err
	}
	id, err := session.BoardID(ctx)
	if err != nil {
		return err
	}
	size, err := session.FlashSize(ctx)
	if err != nil {
		return err
	}
	result.BootloaderRev = rev
	result.BoardID = id
	result.FlashSize = size

	log.Info().
		Uint32("bl_rev", rev).
		Uint32("board_id", id).
		Int32("flash_size", size).
		Msg("bootloader found")
	return nil
}
