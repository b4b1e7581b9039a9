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
	"fmt"
	"os"

	"github.com/ZaparooProject/go-osd/internal/checksum"
)

// flashWord is the programming granularity of the board flash.
const flashWord = 4

// erasedByte is the value of unprogrammed flash.
const erasedByte = 0xFF

// ChecksumFunc computes the integrity code of a padded image as the board
// will report it for a flash of padLen bytes.
type ChecksumFunc func(image []byte, padLen int32) uint32

// PX4Checksum is the checksum the OSD bootloader answers GET_CRC with.
var PX4Checksum ChecksumFunc = checksum.PX4

// FirmwareImage is a binary ready to be programmed.
type FirmwareImage struct {
	// Bytes is the file contents padded with 0xFF to a multiple of 4.
	Bytes []byte
	// Size is the length of the file before padding.
	Size int
	// BoardFlashSize is the flash size the checksum was computed for.
	BoardFlashSize int32
	// ExpectedCRC is what the board must report after programming.
	ExpectedCRC uint32
}

// ReadFirmware loads and pads a firmware file without binding it to a
// board.
func ReadFirmware(path string) (*FirmwareImage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, &FileError{Op: "read firmware", Path: path, Err: err}
	}
	return &FirmwareImage{
		Bytes: padImage(data),
		Size:  len(data),
	}, nil
}

// LoadFirmware loads a firmware file and computes the checksum the board
// with the given flash size will report for it.
func LoadFirmware(path string, boardFlashSize int32, sum ChecksumFunc) (*FirmwareImage, error) {
	img, err := ReadFirmware(path)
	if err != nil {
		return nil, err
	}
	if err := img.Bind(boardFlashSize, sum); err != nil {
		return nil, &FileError{Op: "load firmware", Path: path, Err: err}
	}
	return img, nil
}

// Bind records the board flash size and computes the expected checksum.
// A nil sum selects PX4Checksum.
func (f *FirmwareImage) Bind(boardFlashSize int32, sum ChecksumFunc) error {
	if int64(len(f.Bytes)) > int64(boardFlashSize) {
		return fmt.Errorf("%w: %d bytes, flash holds %d", ErrImageTooLarge, len(f.Bytes), boardFlashSize)
	}
	if sum == nil {
		sum = PX4Checksum
	}
	f.BoardFlashSize = boardFlashSize
	f.ExpectedCRC = sum(f.Bytes, boardFlashSize)
	return nil
}

// Chunks returns the number of PROG_MULTI frames needed for the image.
func (f *FirmwareImage) Chunks() int {
	return (len(f.Bytes) + progMultiMax - 1) / progMultiMax
}

func padImage(data []byte) []byte {
	padded := len(data)
	if rem := padded % flashWord; rem != 0 {
		padded += flashWord - rem
	}
	out := make([]byte, padded)
	copy(out, data)
	for i := len(data); i < padded; i++ {
		out[i] = erasedByte
	}
	return out
}
