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
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-osd/internal/syncutil"
	"github.com/rs/zerolog/log"
)

// State is the connection and protocol phase of a Session.
type State int

// Session states
const (
	StateDisconnected State = iota
	StateIdle
	StateSynchronized
	StateErasing
	StateProgramming
	StateVerifying
	StateRebooting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateSynchronized:
		return "synchronized"
	case StateErasing:
		return "erasing"
	case StateProgramming:
		return "programming"
	case StateVerifying:
		return "verifying"
	case StateRebooting:
		return "rebooting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session speaks the bootloader protocol over one Link. It owns the link
// until Close, and runs one request at a time.
type Session struct {
	link   Link
	trace  *TraceBuffer
	config Config
	mu     syncutil.Mutex
	state  State
}

// NewSession takes ownership of link.
func NewSession(link Link, opts ...Option) *Session {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Session{
		link:   link,
		config: config,
		trace:  NewTraceBuffer(link.Path(), config.TraceSize),
		state:  StateIdle,
	}
}

// Path returns the device path of the underlying link.
func (s *Session) Path() string {
	return s.link.Path()
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session is open and its device attached.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateClosed && s.state != StateDisconnected && s.link.Good()
}

// Close releases the link. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	if err := s.link.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.link.Path(), err)
	}
	return nil
}

// Sync checks that the device is listening: GET_SYNC must be answered
// with INSYNC OK.
func (s *Session) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("sync", s.syncLocked(ctx, s.config.Timeouts.Sync))
}

// SyncWithin is Sync with its own ceiling for the reply. Port discovery
// uses a short one so a silent candidate is ruled out quickly.
func (s *Session) SyncWithin(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout <= 0 {
		timeout = s.config.Timeouts.Sync
	}
	return s.fail("sync", s.syncLocked(ctx, timeout))
}

// Timeouts returns the wait ceilings the session runs with.
func (s *Session) Timeouts() Timeouts {
	return s.config.Timeouts
}

// FlashSize returns the largest firmware image the board accepts.
func (s *Session) FlashSize(ctx context.Context) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.deviceInfo(ctx, infoFlashSize)
	if err != nil {
		return 0, s.fail("get flash size", err)
	}
	return int32(v), nil //nolint:gosec // the device reports a signed size
}

// BootloaderRevision returns the bootloader protocol revision.
func (s *Session) BootloaderRevision(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.deviceInfo(ctx, infoBootloaderRev)
	if err != nil {
		return 0, s.fail("get bootloader revision", err)
	}
	if v < MinBootloaderRev || v > MaxBootloaderRev {
		log.Warn().
			Str("port", s.link.Path()).
			Uint32("revision", v).
			Msg("bootloader revision outside the supported range")
	}
	return v, nil
}

// BoardID returns the board type reported by the bootloader.
func (s *Session) BoardID(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.deviceInfo(ctx, infoBoardID)
	if err != nil {
		return 0, s.fail("get board id", err)
	}
	return v, nil
}

// BoardRevision returns the board revision reported by the bootloader.
func (s *Session) BoardRevision(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.deviceInfo(ctx, infoBoardRev)
	if err != nil {
		return 0, s.fail("get board revision", err)
	}
	return v, nil
}

// BoardCRC returns the checksum the board computes over its flash.
func (s *Session) BoardCRC(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	crc, err := s.boardCRC(ctx)
	if err != nil {
		return 0, s.fail("get crc", err)
	}
	return crc, nil
}

// ForceBootloader asks the running application to reboot into the
// bootloader. Leftover input is drained for the settle window, which is
// waited out in full. The device usually re-enumerates afterwards, so the
// next request on this session is expected to fail.
func (s *Session) ForceBootloader(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("reboot to bootloader", s.forceBootloader(ctx))
}

func (s *Session) forceBootloader(ctx context.Context) error {
	if err := s.send(frame(cmdBootloaderUpload), "upload request"); err != nil {
		return err
	}
	if err := s.getSync(ctx); err != nil {
		return err
	}
	s.state = StateRebooting
	start := time.Now()

	for time.Since(start) < s.config.Timeouts.Settle {
		n, err := s.link.Pending()
		if err != nil || n == 0 {
			break
		}
		if _, err := s.read(ctx, n, "drain"); err != nil {
			break
		}
	}
	if s.link.Good() {
		if err := s.link.DiscardInput(); err != nil {
			return s.linkError(err)
		}
	}

	if err := sleepContext(ctx, s.config.Timeouts.Settle-time.Since(start)); err != nil {
		return err
	}
	if !s.link.Good() {
		s.state = StateDisconnected
		return fmt.Errorf("%w: device did not come back after reboot request", ErrNotConnected)
	}
	return nil
}

// Erase wipes the application flash. The board answers once the erase
// has finished, which may take up to the erase timeout.
func (s *Session) Erase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("erase", s.erase(ctx))
}

func (s *Session) erase(ctx context.Context) error {
	if err := s.discardInput(); err != nil {
		return err
	}
	if err := s.syncLocked(ctx, s.config.Timeouts.Sync); err != nil {
		return err
	}

	s.state = StateErasing
	s.report(Progress{Phase: PhaseErasing})
	if err := s.send(frame(cmdChipErase), "chip erase"); err != nil {
		return err
	}
	if _, err := s.waitPending(ctx, 1, s.config.Timeouts.Erase); err != nil {
		return err
	}
	if err := s.getSync(ctx); err != nil {
		return err
	}
	s.state = StateSynchronized
	return nil
}

// Program writes image to flash in PROG_MULTI chunks. Every chunk must be
// acknowledged before the next one is sent.
func (s *Session) Program(ctx context.Context, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateProgramming
	if err := s.sendChunks(ctx, cmdProgMulti, image, progMultiMax, PhaseProgramming); err != nil {
		return s.fail("program", err)
	}
	s.state = StateSynchronized
	return nil
}

// Verify compares the board checksum with expected. A difference is
// reported as *ChecksumMismatchError.
func (s *Session) Verify(ctx context.Context, expected uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateVerifying
	s.report(Progress{Phase: PhaseVerifying})
	crc, err := s.boardCRC(ctx)
	if err != nil {
		return s.fail("verify", err)
	}
	s.state = StateSynchronized
	if crc != expected {
		return s.fail("verify", &ChecksumMismatchError{Expected: expected, Actual: crc})
	}
	return nil
}

// Reboot starts the programmed application.
func (s *Session) Reboot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateRebooting
	s.report(Progress{Phase: PhaseRebooting})
	if err := s.send(frame(cmdReboot), "reboot"); err != nil {
		return s.fail("reboot", err)
	}
	return s.fail("reboot", s.getSync(ctx))
}

func (s *Session) syncLocked(ctx context.Context, timeout time.Duration) error {
	// A resync starts a new exchange; earlier traffic is not part of it.
	s.trace.Clear()
	if err := s.discardInput(); err != nil {
		return err
	}
	if err := s.send(frame(cmdGetSync), "get sync"); err != nil {
		return err
	}
	if err := s.getSyncWithin(ctx, timeout); err != nil {
		return err
	}
	s.state = StateSynchronized
	return nil
}

func (s *Session) deviceInfo(ctx context.Context, selector byte) (uint32, error) {
	if err := s.send(frame(cmdGetDevice, selector), "get device"); err != nil {
		return 0, err
	}
	data, err := s.read(ctx, 4, "device info")
	if err != nil {
		return 0, err
	}
	if err := s.getSync(ctx); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

func (s *Session) boardCRC(ctx context.Context) (uint32, error) {
	if err := s.send(frame(cmdGetCRC), "get crc"); err != nil {
		return 0, err
	}
	data, err := s.read(ctx, 4, "crc")
	if err != nil {
		return 0, err
	}
	if err := s.getSync(ctx); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// sendChunks streams data as length-prefixed cmd frames of at most size
// bytes, reading an ack after each.
func (s *Session) sendChunks(ctx context.Context, cmd byte, data []byte, size int, phase Phase) error {
	start := time.Now()
	total := len(data)
	chunks := (total + size - 1) / size
	left := total

	for i := 0; left > 0; i++ {
		off := total - left
		n := min(size, left)
		if err := s.send(dataFrame(cmd, data[off:off+n]), ""); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, chunks, err)
		}
		if err := s.getSync(ctx); err != nil {
			return fmt.Errorf("chunk %d/%d at offset %d: %w", i+1, chunks, off, err)
		}
		left -= n
		s.report(Progress{
			Phase:       phase,
			Chunk:       i + 1,
			TotalChunks: chunks,
			BytesDone:   total - left,
			BytesTotal:  total,
			Elapsed:     time.Since(start),
		})
	}
	if left != 0 {
		return fmt.Errorf("%w: %d bytes not sent", ErrIncompleteTransfer, left)
	}
	return nil
}

// getSync reads the two byte acknowledgement that ends every reply.
func (s *Session) getSync(ctx context.Context) error {
	return s.getSyncWithin(ctx, s.config.Timeouts.Sync)
}

func (s *Session) getSyncWithin(ctx context.Context, timeout time.Duration) error {
	ok, err := s.waitPending(ctx, 2, timeout)
	if err != nil {
		return err
	}
	if !ok {
		s.trace.RecordTimeout("ack")
		return fmt.Errorf("%w: no reply within %s", ErrNoSync, timeout)
	}

	ack, err := s.read(ctx, 2, "ack")
	if err != nil {
		return err
	}
	if ack[0] != statusInSync {
		return fmt.Errorf("%w: got 0x%02X", ErrNoSync, ack[0])
	}
	switch ack[1] {
	case statusOK:
		return nil
	case statusFailed:
		return ErrOperationFailed
	case statusInvalid:
		return ErrInvalidOperation
	default:
		return fmt.Errorf("%w: ack status 0x%02X (%s)", ErrUnexpectedResponse, ack[1], statusName(ack[1]))
	}
}

// waitPending polls until at least n bytes are buffered. It returns false
// when the timeout passes first.
func (s *Session) waitPending(ctx context.Context, n int, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		avail, err := s.link.Pending()
		if err != nil {
			return false, s.linkError(err)
		}
		if avail >= n {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		if err := sleepContext(ctx, s.config.PollInterval); err != nil {
			return false, err
		}
	}
}

func (s *Session) read(ctx context.Context, n int, note string) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Read)
	defer cancel()

	data, err := s.link.Read(rctx, n)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("reading %s: %w", note, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.trace.RecordTimeout(note)
			return nil, fmt.Errorf("%w: reading %d bytes of %s", ErrTimeout, n, note)
		}
		return nil, s.linkError(err)
	}
	s.trace.RecordRX(data, note)
	return data, nil
}

func (s *Session) send(data []byte, note string) error {
	if err := s.checkLink(); err != nil {
		return err
	}
	s.trace.RecordTX(data, note)
	if err := s.link.Write(data); err != nil {
		return s.linkError(err)
	}
	return nil
}

func (s *Session) discardInput() error {
	if err := s.checkLink(); err != nil {
		return err
	}
	if err := s.link.DiscardInput(); err != nil {
		return s.linkError(err)
	}
	return nil
}

func (s *Session) checkLink() error {
	if s.state == StateClosed {
		return fmt.Errorf("%w: session closed", ErrNotConnected)
	}
	if !s.link.Good() {
		s.state = StateDisconnected
		return ErrNotConnected
	}
	return nil
}

// linkError marks the session disconnected when err came from a device
// that has gone away.
func (s *Session) linkError(err error) error {
	if s.link.Good() && !IsDeviceGone(err) {
		return err
	}
	s.state = StateDisconnected
	if errors.Is(err, ErrNotConnected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrNotConnected, err)
}

func (s *Session) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Str("port", s.link.Path()).Str("op", op).Msg("session operation failed")
	return s.trace.WrapError(&ProtocolError{Op: op, Port: s.link.Path(), Err: err})
}

func (s *Session) report(p Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(p)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
