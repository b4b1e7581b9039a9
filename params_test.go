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
	"testing"

	testutil "github.com/ZaparooProject/go-osd/internal/testing"
	"github.com/ZaparooProject/go-osd/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadParams(t *testing.T) {
	t.Parallel()

	dev := testutil.NewVirtualOSD("/dev/ttyACM0")
	var reports []Progress
	s := newVirtualSession(t, dev, WithProgressCallback(func(p Progress) {
		reports = append(reports, p)
	}))

	buf := params.Default()
	require.NoError(t, params.Encode(&buf, "Map_Panel", "1,2"))
	require.NoError(t, s.UploadParams(context.Background(), &buf))

	assert.Equal(t, [testutil.ParamsSize]byte(buf), dev.Params())
	assert.Equal(t, 1, dev.Saves())

	var ops []byte
	var sizes []int
	for _, c := range dev.Commands() {
		ops = append(ops, c.Op)
		if c.Op == cmdSetParams {
			sizes = append(sizes, len(c.Payload))
		}
	}
	require.Len(t, sizes, 18)
	for _, n := range sizes[:17] {
		assert.Equal(t, 60, n)
	}
	assert.Equal(t, 4, sizes[17])

	assert.Equal(t, byte(cmdStartTransfer), ops[0])
	assert.Equal(t, byte(cmdEndTransfer), ops[len(ops)-2])
	assert.Equal(t, byte(cmdSaveToEEPROM), ops[len(ops)-1])

	require.Len(t, reports, 18)
	assert.Equal(t, PhaseParamsUpload, reports[17].Phase)
	assert.Equal(t, params.BufferSize, reports[17].BytesDone)
}

func TestUploadParamsRejected(t *testing.T) {
	t.Parallel()

	dev := testutil.NewVirtualOSD("/dev/ttyACM0")
	dev.SetAck(cmdEndTransfer, statusFailed)
	s := newVirtualSession(t, dev)

	buf := params.Default()
	err := s.UploadParams(context.Background(), &buf)
	require.ErrorIs(t, err, ErrOperationFailed)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "end parameter transfer", pe.Op)
	assert.Zero(t, dev.Saves())
}

func TestUploadParamsToBootloaderIsRejected(t *testing.T) {
	t.Parallel()

	// START_TRANSFER shares its byte with CHIP_VERIFY, which the
	// bootloader does not implement.
	dev := newBootloader(t)
	s := newVirtualSession(t, dev)

	buf := params.Default()
	err := s.UploadParams(context.Background(), &buf)
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, testutil.ModeBootloader, dev.Commands()[0].Mode)
}

func TestDownloadParams(t *testing.T) {
	t.Parallel()

	for _, trailingAck := range []bool{false, true} {
		dev := testutil.NewVirtualOSD("/dev/ttyACM0")
		dev.SetParamsAck(trailingAck)

		want := params.Default()
		require.NoError(t, params.Encode(&want, "Misc_Start_Col", "-3"))
		dev.SetParams(want)

		var reports []Progress
		s := newVirtualSession(t, dev, WithProgressCallback(func(p Progress) {
			reports = append(reports, p)
		}))

		got, err := s.DownloadParams(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		require.Len(t, reports, 18)
		assert.Equal(t, 18, reports[17].Chunk)

		// The session stays usable whether or not the ack was sent.
		require.NoError(t, s.Sync(context.Background()))
	}
}

func TestDownloadParamsShortBlock(t *testing.T) {
	t.Parallel()

	s, link := newScriptSession(make([]byte, 100))
	_, err := s.DownloadParams(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, []byte{cmdGetParams, cmdEOC}, link.written[0])
}
