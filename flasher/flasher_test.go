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

package flasher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/detection"
	"github.com/ZaparooProject/go-osd/internal/checksum"
	virt "github.com/ZaparooProject/go-osd/internal/testing"
	"github.com/ZaparooProject/go-osd/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	opChipErase = 0x23
	opReboot    = 0x30
)

func busOpener(bus *virt.Bus) osd.Opener {
	return func(path string, baud int) (osd.Link, error) {
		port, err := bus.Open(path, baud)
		if err != nil {
			return nil, err
		}
		return port, nil
	}
}

func newTestFlasher(bus *virt.Bus, opts ...Option) *Flasher {
	loc := detection.New(busOpener(bus), detection.Options{
		Ports: []string{"/dev/ttyACM0", "/dev/ttyACM1"},
		SessionOptions: []osd.Option{osd.WithTimeouts(osd.Timeouts{
			Sync:   50 * time.Millisecond,
			Erase:  200 * time.Millisecond,
			Settle: 20 * time.Millisecond,
			Read:   100 * time.Millisecond,
		})},
	})
	opts = append([]Option{WithReenumerateTimeout(2 * time.Second)}, opts...)
	return New(loc, opts...)
}

func writeImage(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 7)
	}
	path := filepath.Join(t.TempDir(), "osd.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func padded(data []byte) []byte {
	out := append([]byte(nil), data...)
	for len(out)%4 != 0 {
		out = append(out, 0xFF)
	}
	return out
}

func TestUploadFirmwareReenumerates(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetRebootPath("/dev/ttyACM1")
	bus := virt.NewBus(board)
	path, data := writeImage(t, 601)

	result, err := newTestFlasher(bus).UploadFirmware(context.Background(), path)
	require.NoError(t, err)

	image := padded(data)
	assert.Equal(t, "/dev/ttyACM1", result.Port)
	assert.Equal(t, 601, result.ImageSize)
	assert.Equal(t, int32(virt.DefaultFlashSize), result.FlashSize)
	assert.Equal(t, uint32(4), result.BootloaderRev)
	assert.Equal(t, uint32(9), result.BoardID)
	assert.Equal(t, checksum.PX4(image, virt.DefaultFlashSize), result.ExpectedCRC)
	assert.True(t, result.ChecksumOK)

	assert.Equal(t, image, board.Flash())
	assert.Equal(t, 1, board.Reenumerations())
	assert.Equal(t, virt.ModeApplication, board.Mode())
}

func TestUploadFirmwareDeviceDropsOnReboot(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetRebootPath("/dev/ttyACM1")
	board.SetDropOnReboot(true)
	bus := virt.NewBus(board)
	path, data := writeImage(t, 128)

	result, err := newTestFlasher(bus).UploadFirmware(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", result.Port)
	assert.Equal(t, data, board.Flash())
}

func TestUploadFirmwareAlreadyInBootloader(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetMode(virt.ModeBootloader)
	bus := virt.NewBus(board)
	path, data := writeImage(t, 200)

	result, err := newTestFlasher(bus).UploadFirmware(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", result.Port)
	assert.Equal(t, data, board.Flash())
	assert.Equal(t, 0, board.Reenumerations())
	assert.Equal(t, []string{"/dev/ttyACM0"}, bus.Opened())
}

func TestUploadFirmwareChecksumMismatchIsFatal(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetMode(virt.ModeBootloader)
	board.CorruptCRC(1)
	path, _ := writeImage(t, 64)

	_, err := newTestFlasher(virt.NewBus(board)).UploadFirmware(context.Background(), path)
	require.ErrorIs(t, err, osd.ErrChecksumMismatch)

	assert.Equal(t, 0, board.CommandCount(opReboot))
	assert.Equal(t, virt.ModeBootloader, board.Mode())
}

func TestUploadFirmwareChecksumMismatchWarns(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetMode(virt.ModeBootloader)
	board.CorruptCRC(1)
	path, _ := writeImage(t, 64)

	f := newTestFlasher(virt.NewBus(board), WithChecksumPolicy(ChecksumWarn))
	result, err := f.UploadFirmware(context.Background(), path)
	require.NoError(t, err)

	assert.False(t, result.ChecksumOK)
	assert.Equal(t, 1, board.CommandCount(opReboot))
	assert.Equal(t, virt.ModeApplication, board.Mode())
}

func TestUploadFirmwareTooLarge(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetMode(virt.ModeBootloader)
	board.SetFlashSize(64)
	path, _ := writeImage(t, 100)

	_, err := newTestFlasher(virt.NewBus(board)).UploadFirmware(context.Background(), path)
	require.ErrorIs(t, err, osd.ErrImageTooLarge)
	assert.Equal(t, 0, board.CommandCount(opChipErase))
}

func TestUploadFirmwareMissingFile(t *testing.T) {
	t.Parallel()

	bus := virt.NewBus(virt.NewVirtualOSD("/dev/ttyACM0"))
	missing := filepath.Join(t.TempDir(), "missing.bin")

	_, err := newTestFlasher(bus).UploadFirmware(context.Background(), missing)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, bus.Opened())
}

func TestUploadParamsDefaults(t *testing.T) {
	t.Parallel()

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	require.NoError(t, newTestFlasher(virt.NewBus(board)).UploadParams(context.Background(), ""))

	want := params.Default()
	assert.Equal(t, [virt.ParamsSize]byte(want), board.Params())
	assert.Equal(t, 1, board.Saves())
}

func TestUploadParamsFromFile(t *testing.T) {
	t.Parallel()

	buf := params.Default()
	require.NoError(t, params.Encode(&buf, "Map_Panel", "1"))
	path := filepath.Join(t.TempDir(), "osd.txt")
	require.NoError(t, params.WriteFile(path, &buf))

	board := virt.NewVirtualOSD("/dev/ttyACM0")
	require.NoError(t, newTestFlasher(virt.NewBus(board)).UploadParams(context.Background(), path))
	assert.Equal(t, [virt.ParamsSize]byte(buf), board.Params())
}

func TestUploadParamsBadFileTouchesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "osd.txt")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))
	bus := virt.NewBus(virt.NewVirtualOSD("/dev/ttyACM0"))

	err := newTestFlasher(bus).UploadParams(context.Background(), path)
	require.ErrorIs(t, err, params.ErrParameterParse)
	assert.Empty(t, bus.Opened())
}

func TestDownloadParams(t *testing.T) {
	t.Parallel()

	want := params.Default()
	board := virt.NewVirtualOSD("/dev/ttyACM0")
	board.SetParams(want)
	path := filepath.Join(t.TempDir(), "osd.txt")

	require.NoError(t, newTestFlasher(virt.NewBus(board)).DownloadParams(context.Background(), path))

	got, err := params.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var expected bytes.Buffer
	require.NoError(t, params.Standard().Write(&expected, &want))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), string(written))
}

func TestChecksumPolicy(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want ChecksumPolicy
	}{
		{"", ChecksumFatal},
		{"fatal", ChecksumFatal},
		{"warn", ChecksumWarn},
	} {
		got, err := ParseChecksumPolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		if tt.in != "" {
			assert.Equal(t, tt.in, got.String())
		}
	}

	_, err := ParseChecksumPolicy("ignore")
	require.Error(t, err)
}
