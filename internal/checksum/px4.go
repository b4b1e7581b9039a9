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

// Package checksum implements the image integrity code reported by the
// PX4-derived bootloader in response to GET_CRC.
package checksum

import "hash/crc32"

var flashPad = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}

// PX4 returns the checksum the bootloader computes over its flash: the
// reflected CRC-32 (IEEE table) of image with a zero seed and no final
// inversion, continued over 0xFF words up to padLen. padLen is the board
// flash size, so erased flash past the image end is accounted for the same
// way the device does it.
func PX4(image []byte, padLen int32) uint32 {
	state := Update(0, image)
	for i := len(image); i < int(padLen)-1; i += len(flashPad) {
		state = Update(state, flashPad[:])
	}
	return state
}

// Update continues a raw (non-inverted) CRC-32 state over p.
func Update(state uint32, p []byte) uint32 {
	return ^crc32.Update(^state, crc32.IEEETable, p)
}
