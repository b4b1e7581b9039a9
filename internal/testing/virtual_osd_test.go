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

package testing

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ZaparooProject/go-osd/internal/checksum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBoard(t *testing.T, dev *VirtualOSD) *VirtualPort {
	t.Helper()
	bus := NewBus(dev)
	port, err := bus.Open(dev.Path(), Baud)
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })
	return port
}

func readN(t *testing.T, port *VirtualPort, n int) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := port.Read(ctx, n)
	require.NoError(t, err)
	return data
}

func TestVirtualOSDSync(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{ModeApplication, ModeBootloader} {
		dev := NewVirtualOSD("/dev/ttyACM0")
		dev.SetMode(mode)
		port := openBoard(t, dev)

		require.NoError(t, port.Write([]byte{opGetSync, opEOC}))
		assert.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2), mode.String())
	}
}

func TestVirtualOSDRejectsMissingEOC(t *testing.T) {
	t.Parallel()

	port := openBoard(t, NewVirtualOSD("/dev/ttyACM0"))
	require.NoError(t, port.Write([]byte{opGetSync, 0x00}))
	assert.Equal(t, []byte{statusInSync, statusInvalid}, readN(t, port, 2))
}

func TestVirtualOSDDeviceInfo(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	dev.SetMode(ModeBootloader)
	dev.SetFlashSize(0x8000)
	port := openBoard(t, dev)

	require.NoError(t, port.Write([]byte{opGetDevice, infoFlashSize, opEOC}))
	reply := readN(t, port, 6)
	assert.Equal(t, uint32(0x8000), binary.LittleEndian.Uint32(reply))
	assert.Equal(t, []byte{statusInSync, statusOK}, reply[4:])

	require.NoError(t, port.Write([]byte{opGetDevice, 9, opEOC}))
	assert.Equal(t, []byte{statusInSync, statusInvalid}, readN(t, port, 2))
}

func TestVirtualOSDProgramAndCRC(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	dev.SetMode(ModeBootloader)
	dev.SetFlashSize(64)
	port := openBoard(t, dev)

	image := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, port.Write([]byte{opChipErase, opEOC}))
	readN(t, port, 2)

	frame := append([]byte{opProgMulti, byte(len(image))}, image...)
	// Split the frame to check reassembly across writes.
	require.NoError(t, port.Write(frame[:3]))
	require.NoError(t, port.Write(append(frame[3:], opEOC)))
	assert.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2))
	assert.Equal(t, image, dev.Flash())

	require.NoError(t, port.Write([]byte{opGetCRC, opEOC}))
	reply := readN(t, port, 6)
	assert.Equal(t, checksum.PX4(image, 64), binary.LittleEndian.Uint32(reply))
}

func TestVirtualOSDOpcodeCollision(t *testing.T) {
	t.Parallel()

	// 0x29 is GET_CRC in the bootloader and SAVE_TO_EEPROM in the
	// application.
	dev := NewVirtualOSD("/dev/ttyACM0")
	port := openBoard(t, dev)

	require.NoError(t, port.Write([]byte{opSaveToEEPROM, opEOC}))
	assert.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2))
	assert.Equal(t, 1, dev.Saves())
	assert.Equal(t, ModeApplication, dev.Commands()[0].Mode)
}

func TestVirtualOSDParameterTransfer(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	port := openBoard(t, dev)

	var want [ParamsSize]byte
	for i := range want {
		want[i] = byte(i)
	}

	require.NoError(t, port.Write([]byte{opStartTransfer, opEOC}))
	readN(t, port, 2)
	for off := 0; off < ParamsSize; off += 60 {
		chunk := want[off:min(off+60, ParamsSize)]
		frame := append([]byte{opSetParams, byte(len(chunk))}, chunk...)
		require.NoError(t, port.Write(append(frame, opEOC)))
		require.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2))
	}
	require.NoError(t, port.Write([]byte{opEndTransfer, opEOC}))
	assert.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2))
	assert.Equal(t, want, dev.Params())

	require.NoError(t, port.Write([]byte{opGetParams, opEOC}))
	got := readN(t, port, ParamsSize)
	assert.Equal(t, want[:], got)

	pending, err := port.Pending()
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestVirtualOSDEndTransferWithoutData(t *testing.T) {
	t.Parallel()

	port := openBoard(t, NewVirtualOSD("/dev/ttyACM0"))
	require.NoError(t, port.Write([]byte{opEndTransfer, opEOC}))
	assert.Equal(t, []byte{statusInSync, statusFailed}, readN(t, port, 2))
}

func TestVirtualOSDRebootReenumerates(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	dev.SetRebootPath("/dev/ttyACM1")
	bus := NewBus(dev)

	port, err := bus.Open("/dev/ttyACM0", Baud)
	require.NoError(t, err)
	require.NoError(t, port.Write([]byte{opBootloader, opEOC}))
	assert.Equal(t, []byte{statusInSync, statusOK}, readN(t, port, 2))

	// Requests sent while the board reboots are lost.
	require.NoError(t, port.Write([]byte{opGetSync, opEOC}))
	pending, err := port.Pending()
	require.NoError(t, err)
	assert.Zero(t, pending)

	require.NoError(t, port.Close())
	assert.Equal(t, ModeBootloader, dev.Mode())
	assert.Equal(t, 1, dev.Reenumerations())

	_, err = bus.Open("/dev/ttyACM0", Baud)
	require.ErrorIs(t, err, ErrNoSuchPort)

	port, err = bus.Open("/dev/ttyACM1", Baud)
	require.NoError(t, err)
	defer func() { _ = port.Close() }()
	assert.Equal(t, "/dev/ttyACM1", port.Path())
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyACM0", "/dev/ttyACM1"}, bus.Opened())
}

func TestVirtualOSDDropOnReboot(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	dev.SetDropOnReboot(true)
	port := openBoard(t, dev)

	require.NoError(t, port.Write([]byte{opBootloader, opEOC}))
	assert.True(t, port.Good())
	readN(t, port, 2)

	assert.False(t, port.Good())
	require.ErrorIs(t, port.Write([]byte{opGetSync, opEOC}), ErrDisconnected)
	_, err := port.Read(context.Background(), 1)
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestVirtualOSDWrongBaudIsSilent(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	port, err := NewBus(dev).Open("/dev/ttyACM0", 57600)
	require.NoError(t, err)
	defer func() { _ = port.Close() }()

	require.NoError(t, port.Write([]byte{opGetSync, opEOC}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = port.Read(ctx, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVirtualOSDPortBusy(t *testing.T) {
	t.Parallel()

	dev := NewVirtualOSD("/dev/ttyACM0")
	bus := NewBus(dev)
	port, err := bus.Open("/dev/ttyACM0", Baud)
	require.NoError(t, err)

	_, err = bus.Open("/dev/ttyACM0", Baud)
	require.ErrorIs(t, err, ErrPortBusy)

	require.NoError(t, port.Close())
	require.NoError(t, port.Close())
	port, err = bus.Open("/dev/ttyACM0", Baud)
	require.NoError(t, err)
	_ = port.Close()
}
