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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/go-osd/internal/checksum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFirmware(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osd.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadFirmwarePadding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		size     int
		wantSize int
	}{
		{name: "empty", size: 0, wantSize: 0},
		{name: "aligned", size: 1000, wantSize: 1000},
		{name: "one over", size: 997, wantSize: 1000},
		{name: "three over", size: 5, wantSize: 8},
		{name: "two over", size: 6, wantSize: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := bytes.Repeat([]byte{0x11}, tt.size)
			img, err := ReadFirmware(writeFirmware(t, raw))
			require.NoError(t, err)

			assert.Equal(t, tt.size, img.Size)
			require.Len(t, img.Bytes, tt.wantSize)
			assert.Zero(t, len(img.Bytes)%4)
			assert.Equal(t, raw, img.Bytes[:tt.size])
			for _, b := range img.Bytes[tt.size:] {
				assert.Equal(t, byte(0xFF), b)
			}
		})
	}
}

func TestLoadFirmwareChecksum(t *testing.T) {
	t.Parallel()

	raw := bytes.Repeat([]byte{0xA5, 0x5A}, 498) // 996 bytes
	path := writeFirmware(t, append(raw, 0x01))

	img, err := LoadFirmware(path, 4096, PX4Checksum)
	require.NoError(t, err)
	assert.Equal(t, int32(4096), img.BoardFlashSize)
	assert.Equal(t, checksum.PX4(img.Bytes, 4096), img.ExpectedCRC)
	assert.Equal(t, 17, img.Chunks())
}

func TestLoadFirmwareCustomChecksum(t *testing.T) {
	t.Parallel()

	path := writeFirmware(t, []byte{1, 2, 3, 4})
	var gotPad int32
	img, err := LoadFirmware(path, 64, func(image []byte, padLen int32) uint32 {
		gotPad = padLen
		return uint32(len(image))
	})
	require.NoError(t, err)
	assert.Equal(t, int32(64), gotPad)
	assert.Equal(t, uint32(4), img.ExpectedCRC)
}

func TestLoadFirmwareMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFirmware(filepath.Join(t.TempDir(), "absent.bin"), 4096, nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "read firmware", fe.Op)
}

func TestBindRejectsOversizedImage(t *testing.T) {
	t.Parallel()

	img, err := ReadFirmware(writeFirmware(t, make([]byte, 130)))
	require.NoError(t, err)

	err = img.Bind(128, nil)
	require.ErrorIs(t, err, ErrImageTooLarge)

	require.NoError(t, img.Bind(132, nil))
	assert.Equal(t, checksum.PX4(img.Bytes, 132), img.ExpectedCRC)
}
