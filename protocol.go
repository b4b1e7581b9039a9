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

// Reply status bytes
const (
	statusNOP     = 0x00
	statusOK      = 0x10
	statusFailed  = 0x11
	statusInSync  = 0x12
	statusInvalid = 0x13
)

// Bootloader commands
const (
	cmdEOC        = 0x20
	cmdGetSync    = 0x21
	cmdGetDevice  = 0x22
	cmdChipErase  = 0x23
	cmdChipVerify = 0x24
	cmdProgMulti  = 0x27
	cmdReadMulti  = 0x28
	cmdGetCRC     = 0x29
	cmdGetOTP     = 0x2a
	cmdGetSN      = 0x2b
	cmdGetChip    = 0x2c
	cmdReboot     = 0x30

	// cmdBootloaderUpload asks the running application to reboot into the
	// bootloader. The bootloader itself answers it as a no-op.
	cmdBootloaderUpload = 0x55
)

// Parameter transfer commands, understood by the OSD application. They
// share byte values with bootloader commands.
const (
	cmdStartTransfer = 0x24 // same byte as cmdChipVerify
	cmdSetParams     = 0x25
	cmdGetParams     = 0x26
	cmdEndTransfer   = 0x28 // same byte as cmdReadMulti
	cmdSaveToEEPROM  = 0x29 // same byte as cmdGetCRC
)

// GET_DEVICE selectors
const (
	infoBootloaderRev = 1
	infoBoardID       = 2
	infoBoardRev      = 3
	infoFlashSize     = 4
)

// Supported bootloader protocol revisions.
const (
	MinBootloaderRev = 2
	MaxBootloaderRev = 4
)

const (
	// progMultiMax is the largest PROG_MULTI payload. It must stay a
	// multiple of 4.
	progMultiMax = 60
	// readMultiMax is the largest single read of streamed data.
	readMultiMax = 60
)

// frame builds a command: opcode, arguments, EOC.
func frame(cmd byte, args ...byte) []byte {
	out := make([]byte, 0, len(args)+2)
	out = append(out, cmd)
	out = append(out, args...)
	return append(out, cmdEOC)
}

// dataFrame builds a command carrying a length-prefixed payload.
func dataFrame(cmd byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+3)
	out = append(out, cmd, byte(len(payload)))
	out = append(out, payload...)
	return append(out, cmdEOC)
}

func statusName(b byte) string {
	switch b {
	case statusNOP:
		return "NOP"
	case statusOK:
		return "OK"
	case statusFailed:
		return "FAILED"
	case statusInSync:
		return "INSYNC"
	case statusInvalid:
		return "INVALID"
	default:
		return "unknown"
	}
}
