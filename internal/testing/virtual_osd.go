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

// Package testing provides a wire-level simulator of the OSD board.
//
// VirtualOSD answers the bootloader protocol while in ModeBootloader and
// the parameter transfer protocol while in ModeApplication, with the same
// opcode collisions as the real firmware. A Bus hands out VirtualPort
// links by device path, so discovery and re-enumeration after a reboot
// request can be exercised end to end.
package testing

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/ZaparooProject/go-osd/internal/checksum"
	"github.com/ZaparooProject/go-osd/internal/syncutil"
)

// Protocol bytes as seen on the wire.
const (
	statusOK      = 0x10
	statusFailed  = 0x11
	statusInSync  = 0x12
	statusInvalid = 0x13

	opEOC        = 0x20
	opGetSync    = 0x21
	opGetDevice  = 0x22
	opChipErase  = 0x23
	opProgMulti  = 0x27
	opGetCRC     = 0x29
	opReboot     = 0x30
	opBootloader = 0x55

	opStartTransfer = 0x24
	opSetParams     = 0x25
	opGetParams     = 0x26
	opEndTransfer   = 0x28
	opSaveToEEPROM  = 0x29

	infoBootloaderRev = 1
	infoBoardID       = 2
	infoBoardRev      = 3
	infoFlashSize     = 4
)

// ParamsSize is the size of the parameter block held by the application.
const ParamsSize = 1024

// DefaultFlashSize is the flash size a new VirtualOSD reports.
const DefaultFlashSize = 0x1C000

// Baud is the only line speed a VirtualOSD understands.
const Baud = 115200

// Mode is the firmware the virtual board is running.
type Mode int

const (
	// ModeApplication is the OSD application: parameter transfer commands.
	ModeApplication Mode = iota
	// ModeBootloader is the PX4-style bootloader: flash commands.
	ModeBootloader
)

func (m Mode) String() string {
	if m == ModeBootloader {
		return "bootloader"
	}
	return "application"
}

// Command is one request received by the board.
type Command struct {
	Args    []byte
	Payload []byte
	Op      byte
	Mode    Mode
}

// VirtualOSD simulates one OSD board at the byte level.
type VirtualOSD struct {
	ackOverride    map[byte]byte
	port           *VirtualPort
	path           string
	rebootPath     string
	flash          []byte
	paramsIn       []byte
	commands       []Command
	rx             bytes.Buffer
	tx             bytes.Buffer
	params         [ParamsSize]byte
	mu             syncutil.Mutex
	mode           Mode
	flashSize      int32
	bootloaderRev  uint32
	boardID        uint32
	boardRev       uint32
	crcOffset      uint32
	saves          int
	reenumerations int
	silent         bool
	rebooting      bool
	dropOnReboot   bool
	paramsAck      bool
	transferring   bool
	wrongBaud      bool
}

// NewVirtualOSD creates a board enumerated at path, running the
// application.
func NewVirtualOSD(path string) *VirtualOSD {
	return &VirtualOSD{
		path:          path,
		rebootPath:    path,
		mode:          ModeApplication,
		flashSize:     DefaultFlashSize,
		bootloaderRev: 4,
		boardID:       9,
		boardRev:      1,
		ackOverride:   make(map[byte]byte),
	}
}

// SetMode switches the running firmware.
func (v *VirtualOSD) SetMode(m Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = m
}

// Mode returns the running firmware.
func (v *VirtualOSD) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Path returns the path the board is currently enumerated at.
func (v *VirtualOSD) Path() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

// SetRebootPath sets the path the board re-enumerates at after a reboot
// request.
func (v *VirtualOSD) SetRebootPath(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rebootPath = path
}

// SetFlashSize sets the size reported for INFO_FLASH_SIZE.
func (v *VirtualOSD) SetFlashSize(n int32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flashSize = n
}

// SetBootloaderRevision sets the value reported for INFO_BL_REV.
func (v *VirtualOSD) SetBootloaderRevision(rev uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bootloaderRev = rev
}

// SetSilent makes the board swallow every request without answering.
func (v *VirtualOSD) SetSilent(silent bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.silent = silent
}

// SetAck makes the board answer op with INSYNC status instead of OK.
func (v *VirtualOSD) SetAck(op, status byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ackOverride[op] = status
}

// CorruptCRC offsets the checksum reported for GET_CRC.
func (v *VirtualOSD) CorruptCRC(offset uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.crcOffset = offset
}

// SetParamsAck makes the application follow GET_PARAMS data with an ack.
func (v *VirtualOSD) SetParamsAck(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.paramsAck = enabled
}

// SetDropOnReboot makes the open port go bad as soon as the reply to a
// reboot request has been read.
func (v *VirtualOSD) SetDropOnReboot(drop bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropOnReboot = drop
}

// SetParams loads the application's parameter block.
func (v *VirtualOSD) SetParams(p [ParamsSize]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.params = p
}

// Params returns the application's parameter block.
func (v *VirtualOSD) Params() [ParamsSize]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.params
}

// Saves returns how many times the parameters were stored to EEPROM.
func (v *VirtualOSD) Saves() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saves
}

// Flash returns the programmed bytes.
func (v *VirtualOSD) Flash() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.flash...)
}

// Reenumerations returns how many times the board rebooted into the
// bootloader.
func (v *VirtualOSD) Reenumerations() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reenumerations
}

// Commands returns every request received so far.
func (v *VirtualOSD) Commands() []Command {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Command, len(v.commands))
	copy(out, v.commands)
	return out
}

// CommandCount returns how many requests with op were received.
func (v *VirtualOSD) CommandCount(op byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, c := range v.commands {
		if c.Op == op {
			count++
		}
	}
	return count
}

// ErrPortBusy is returned when a board's port is opened twice.
var ErrPortBusy = errors.New("port busy")

func (v *VirtualOSD) open(path string, baud int) (*VirtualPort, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.port != nil {
		return nil, ErrPortBusy
	}
	v.rx.Reset()
	v.tx.Reset()
	v.wrongBaud = baud != Baud
	v.port = &VirtualPort{dev: v, path: path}
	return v.port, nil
}

// release is called with v.mu held when p is closed.
func (v *VirtualOSD) release(p *VirtualPort) {
	if v.port != p {
		return
	}
	v.port = nil
	if v.rebooting {
		v.completeReboot()
	}
}

func (v *VirtualOSD) completeReboot() {
	v.rebooting = false
	v.mode = ModeBootloader
	v.path = v.rebootPath
	v.rx.Reset()
	v.tx.Reset()
	v.reenumerations++
}

// attached reports, with v.mu held, whether p still reaches the board.
func (v *VirtualOSD) attached(p *VirtualPort) bool {
	if p.closed || v.port != p {
		return false
	}
	return !(v.rebooting && v.dropOnReboot && v.tx.Len() == 0)
}

// receive parses host bytes, with v.mu held.
func (v *VirtualOSD) receive(data []byte) {
	if v.silent || v.rebooting || v.wrongBaud {
		return
	}
	v.rx.Write(data)

	for v.rx.Len() > 0 {
		buf := v.rx.Bytes()
		n, ok := v.frameLen(buf)
		if !ok {
			return
		}
		frame := append([]byte(nil), buf[:n]...)
		v.rx.Next(n)

		if frame[n-1] != opEOC {
			v.ack(statusInvalid)
			continue
		}
		v.dispatch(frame[:n-1])
		if v.rebooting {
			v.rx.Reset()
			return
		}
	}
}

// frameLen returns the length of the request at the head of buf,
// including EOC, and whether it has fully arrived.
func (v *VirtualOSD) frameLen(buf []byte) (int, bool) {
	op := buf[0]
	switch {
	case op == opGetDevice:
		return 3, len(buf) >= 3
	case op == opProgMulti && v.mode == ModeBootloader,
		op == opSetParams && v.mode == ModeApplication:
		if len(buf) < 2 {
			return 0, false
		}
		n := 2 + int(buf[1]) + 1
		return n, len(buf) >= n
	default:
		return 2, len(buf) >= 2
	}
}

func (v *VirtualOSD) dispatch(req []byte) {
	cmd := Command{Op: req[0], Mode: v.mode}
	switch {
	case req[0] == opGetDevice:
		cmd.Args = append([]byte(nil), req[1:]...)
	case len(req) > 1:
		cmd.Args = []byte{req[1]}
		cmd.Payload = append([]byte(nil), req[2:]...)
	}
	v.commands = append(v.commands, cmd)

	if v.mode == ModeBootloader {
		v.bootloader(cmd)
		return
	}
	v.application(cmd)
}

func (v *VirtualOSD) bootloader(cmd Command) {
	switch cmd.Op {
	case opGetSync, opBootloader:
		v.ack(statusOK)

	case opGetDevice:
		var value uint32
		switch cmd.Args[0] {
		case infoBootloaderRev:
			value = v.bootloaderRev
		case infoBoardID:
			value = v.boardID
		case infoBoardRev:
			value = v.boardRev
		case infoFlashSize:
			value = uint32(v.flashSize) //nolint:gosec // test fixture
		default:
			v.ack(statusInvalid)
			return
		}
		v.word(value)
		v.ack(statusOK)

	case opChipErase:
		v.flash = v.flash[:0]
		v.ack(statusOK)

	case opProgMulti:
		if int64(len(v.flash)+len(cmd.Payload)) > int64(v.flashSize) {
			v.ack(statusFailed)
			return
		}
		v.flash = append(v.flash, cmd.Payload...)
		v.ack(statusOK)

	case opGetCRC:
		v.word(checksum.PX4(v.flash, v.flashSize) + v.crcOffset)
		v.ack(statusOK)

	case opReboot:
		v.ack(statusOK)
		v.mode = ModeApplication

	default:
		v.ack(statusInvalid)
	}
}

func (v *VirtualOSD) application(cmd Command) {
	switch cmd.Op {
	case opGetSync:
		v.ack(statusOK)

	case opBootloader:
		v.ack(statusOK)
		v.rebooting = true

	case opStartTransfer:
		v.transferring = true
		v.paramsIn = v.paramsIn[:0]
		v.ack(statusOK)

	case opSetParams:
		if !v.transferring || len(v.paramsIn)+len(cmd.Payload) > ParamsSize {
			v.ack(statusFailed)
			return
		}
		v.paramsIn = append(v.paramsIn, cmd.Payload...)
		v.ack(statusOK)

	case opEndTransfer:
		if !v.transferring || len(v.paramsIn) != ParamsSize {
			v.ack(statusFailed)
			return
		}
		copy(v.params[:], v.paramsIn)
		v.transferring = false
		v.ack(statusOK)

	case opSaveToEEPROM:
		v.saves++
		v.ack(statusOK)

	case opGetParams:
		v.tx.Write(v.params[:])
		if v.paramsAck {
			v.ack(statusOK)
		}

	default:
		v.ack(statusInvalid)
	}
}

// ack queues INSYNC and a status, honouring SetAck for the last request.
func (v *VirtualOSD) ack(status byte) {
	if n := len(v.commands); n > 0 {
		if override, ok := v.ackOverride[v.commands[n-1].Op]; ok {
			status = override
		}
	}
	v.tx.Write([]byte{statusInSync, status})
}

func (v *VirtualOSD) word(value uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	v.tx.Write(b[:])
}
