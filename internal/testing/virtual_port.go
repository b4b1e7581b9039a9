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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-osd/internal/syncutil"
)

// ErrDisconnected is returned by a VirtualPort whose board has gone away.
var ErrDisconnected = errors.New("virtual port disconnected")

// ErrNoSuchPort is returned when nothing is enumerated at a path.
var ErrNoSuchPort = errors.New("no such port")

const readPollInterval = time.Millisecond

// VirtualPort is an open link to a VirtualOSD. It satisfies osd.Link.
type VirtualPort struct {
	dev    *VirtualOSD
	path   string
	closed bool
}

// Write sends p to the board.
func (p *VirtualPort) Write(data []byte) error {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()

	if !p.dev.attached(p) {
		return ErrDisconnected
	}
	p.dev.receive(data)
	return nil
}

// Read waits for n bytes from the board.
func (p *VirtualPort) Read(ctx context.Context, n int) ([]byte, error) {
	for {
		p.dev.mu.Lock()
		if !p.dev.attached(p) {
			p.dev.mu.Unlock()
			return nil, ErrDisconnected
		}
		if p.dev.tx.Len() >= n {
			out := make([]byte, n)
			_, _ = p.dev.tx.Read(out)
			p.dev.mu.Unlock()
			return out, nil
		}
		p.dev.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(readPollInterval):
		}
	}
}

// Pending returns the number of unread bytes.
func (p *VirtualPort) Pending() (int, error) {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()

	if !p.dev.attached(p) {
		return 0, ErrDisconnected
	}
	return p.dev.tx.Len(), nil
}

// DiscardInput drops unread bytes.
func (p *VirtualPort) DiscardInput() error {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()

	if !p.dev.attached(p) {
		return ErrDisconnected
	}
	p.dev.tx.Reset()
	return nil
}

// Good reports whether the board is still reachable through p.
func (p *VirtualPort) Good() bool {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	return p.dev.attached(p)
}

// Close releases the port. A board waiting to reboot re-enumerates now.
func (p *VirtualPort) Close() error {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.dev.release(p)
	return nil
}

// Path returns the path the port was opened on.
func (p *VirtualPort) Path() string {
	return p.path
}

// Bus is a set of virtual boards addressed by device path.
type Bus struct {
	devices []*VirtualOSD
	opened  []string
	mu      syncutil.Mutex
}

// NewBus creates a bus with the given boards attached.
func NewBus(devices ...*VirtualOSD) *Bus {
	return &Bus{devices: devices}
}

// Attach adds a board to the bus.
func (b *Bus) Attach(dev *VirtualOSD) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append(b.devices, dev)
}

// Open opens the board currently enumerated at path.
func (b *Bus) Open(path string, baud int) (*VirtualPort, error) {
	b.mu.Lock()
	b.opened = append(b.opened, path)
	devices := append([]*VirtualOSD(nil), b.devices...)
	b.mu.Unlock()

	for _, dev := range devices {
		if dev.Path() == path {
			return dev.open(path, baud)
		}
	}
	return nil, fmt.Errorf("open %s: %w", path, ErrNoSuchPort)
}

// Opened returns every path Open was called with, in order.
func (b *Bus) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// Wire returns the raw byte stream of p as a serial driver sees it: Read
// returns 0, nil when nothing is queued instead of blocking.
func (p *VirtualPort) Wire() io.ReadWriter {
	return wire{port: p}
}

type wire struct {
	port *VirtualPort
}

func (w wire) Write(data []byte) (int, error) {
	if err := w.port.Write(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (w wire) Read(buf []byte) (int, error) {
	dev := w.port.dev
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if !dev.attached(w.port) {
		return 0, ErrDisconnected
	}
	if dev.tx.Len() == 0 || len(buf) == 0 {
		return 0, nil
	}
	return dev.tx.Read(buf) //nolint:wrapcheck // bytes.Buffer only fails when empty
}
