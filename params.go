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
	"time"

	"github.com/ZaparooProject/go-osd/params"
	"github.com/rs/zerolog/log"
)

// trailingAckWindow is how long DownloadParams waits for the optional ack
// after the parameter block.
const trailingAckWindow = 250 * time.Millisecond

// UploadParams sends buf to the running OSD application and has it stored
// in EEPROM.
func (s *Session) UploadParams(ctx context.Context, buf *params.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.command(ctx, cmdStartTransfer, "start transfer"); err != nil {
		return s.fail("start parameter transfer", err)
	}
	if err := s.sendChunks(ctx, cmdSetParams, buf[:], progMultiMax, PhaseParamsUpload); err != nil {
		return s.fail("send parameters", err)
	}
	if err := s.command(ctx, cmdEndTransfer, "end transfer"); err != nil {
		return s.fail("end parameter transfer", err)
	}
	if err := s.command(ctx, cmdSaveToEEPROM, "save to eeprom"); err != nil {
		return s.fail("save parameters", err)
	}
	return nil
}

// DownloadParams reads the parameter block from the running OSD
// application.
func (s *Session) DownloadParams(ctx context.Context) (params.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf params.Buffer
	if err := s.send(frame(cmdGetParams), "get params"); err != nil {
		return buf, s.fail("get parameters", err)
	}

	start := time.Now()
	for off := 0; off < len(buf); {
		n := min(readMultiMax, len(buf)-off)
		data, err := s.read(ctx, n, "params")
		if err != nil {
			return buf, s.fail("get parameters", err)
		}
		copy(buf[off:], data)
		off += n
		s.report(Progress{
			Phase:       PhaseParamsDownload,
			Chunk:       (off + readMultiMax - 1) / readMultiMax,
			TotalChunks: (len(buf) + readMultiMax - 1) / readMultiMax,
			BytesDone:   off,
			BytesTotal:  len(buf),
			Elapsed:     time.Since(start),
		})
	}

	// Some firmware builds end the block with an ack, others do not.
	ok, err := s.waitPending(ctx, 2, trailingAckWindow)
	if err != nil {
		return buf, s.fail("get parameters", err)
	}
	if ok {
		if err := s.getSync(ctx); err != nil {
			return buf, s.fail("get parameters", err)
		}
	} else {
		log.Debug().Str("port", s.link.Path()).Msg("no ack after parameter block")
	}
	return buf, nil
}

// command sends a bare opcode and reads its ack.
func (s *Session) command(ctx context.Context, cmd byte, note string) error {
	if err := s.send(frame(cmd), note); err != nil {
		return err
	}
	return s.getSync(ctx)
}
