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

package checksum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdate_KnownTableEntries(t *testing.T) {
	t.Parallel()

	// With a zero seed and no final inversion a single byte yields the raw
	// table entry for that byte.
	assert.Equal(t, uint32(0x00000000), Update(0, []byte{0x00}))
	assert.Equal(t, uint32(0x77073096), Update(0, []byte{0x01}))
	assert.Equal(t, uint32(0xEE0E612C), Update(0, []byte{0x02}))
}

func TestUpdate_Incremental(t *testing.T) {
	t.Parallel()

	data := []byte("PlayUAV OSD firmware image")
	whole := Update(0, data)
	split := Update(Update(0, data[:7]), data[7:])
	assert.Equal(t, whole, split)
}

func TestPX4_EmptyImage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), PX4(nil, 0))
}

func TestPX4_Padding(t *testing.T) {
	t.Parallel()

	image := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}

	tests := []struct {
		name    string
		padLen  int32
		padding int
	}{
		{name: "no_padding_when_flash_equals_image", padLen: 8, padding: 0},
		{name: "flash_smaller_than_image", padLen: 4, padding: 0},
		{name: "two_words", padLen: 16, padding: 8},
		{name: "unaligned_flash", padLen: 17, padding: 8},
		{name: "one_word", padLen: 10, padding: 4},
		{name: "last_byte_not_padded", padLen: 9, padding: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expanded := append(append([]byte(nil), image...), bytes.Repeat([]byte{0xFF}, tt.padding)...)
			assert.Equal(t, Update(0, expanded), PX4(image, tt.padLen))
		})
	}
}
