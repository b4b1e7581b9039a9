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

// Package detection finds the serial port an OSD board is attached to.
//
// A Locator walks an ordered list of candidate paths, opens each one and
// keeps the first that answers GET_SYNC. Open and sync failures only rule
// out the candidate at hand; cancellation of the caller's context stops
// the scan.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultScanTimeout is how long a candidate may take to answer
	// GET_SYNC during discovery. A board answers in milliseconds.
	DefaultScanTimeout = time.Second

	// DefaultReenumerateTimeout bounds the wait for a board to come back
	// after a reboot request. It covers a scan in which every default
	// candidate stays silent, plus a second scan.
	DefaultReenumerateTimeout = 2*defaultACMPorts*DefaultScanTimeout + 2*time.Second
)

// PortLister enumerates serial ports present on the host.
type PortLister func(ctx context.Context) ([]PortInfo, error)

// Options configures the candidate list and how candidates are opened.
type Options struct {
	// Lister enumerates host ports. Nil selects ListPorts.
	Lister PortLister
	// Ports are tried in order instead of the platform defaults.
	Ports []string
	// USB VID:PID pairs to skip (e.g., ["1234:5678", "ABCD:EF01"])
	Blocklist []string
	// Device paths to explicitly ignore (e.g., ["/dev/ttyACM1", "COM2"])
	IgnorePaths []string
	// SessionOptions are applied to every probe session.
	SessionOptions []osd.Option
	// ScanTimeout caps the GET_SYNC wait per candidate. It never
	// exceeds the session's own sync timeout. Zero selects
	// DefaultScanTimeout.
	ScanTimeout time.Duration
	// Baud is the line speed candidates are opened at.
	Baud int
	// Enumerate appends every port the Lister reports after the defaults.
	Enumerate bool
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Baud:        osd.DefaultBaud,
		Blocklist:   DefaultBlocklist(),
		ScanTimeout: DefaultScanTimeout,
	}
}

// Locator opens candidate ports until one synchronizes.
type Locator struct {
	open osd.Opener
	opts Options
}

// New creates a Locator that opens ports with open.
func New(open osd.Opener, opts Options) *Locator {
	if opts.Baud == 0 {
		opts.Baud = osd.DefaultBaud
	}
	if opts.Lister == nil {
		opts.Lister = ListPorts
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}
	return &Locator{open: open, opts: opts}
}

// ScanTimeout returns the GET_SYNC ceiling used on candidates.
func (l *Locator) ScanTimeout() time.Duration {
	return l.opts.ScanTimeout
}

// Candidates returns the ports FindDevice will try, in order.
func (l *Locator) Candidates(ctx context.Context) ([]PortInfo, error) {
	var ports []PortInfo
	if len(l.opts.Ports) > 0 {
		for _, path := range l.opts.Ports {
			ports = append(ports, PortInfo{Path: path})
		}
		return filterPorts(ports, &l.opts), nil
	}

	ports = DefaultPorts()
	if l.opts.Enumerate || len(ports) == 0 {
		listed, err := l.opts.Lister(ctx)
		if err != nil {
			if len(ports) == 0 {
				return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
			}
			log.Debug().Err(err).Msg("port enumeration failed, using defaults")
		}
		ports = mergePorts(ports, listed)
	}
	return filterPorts(ports, &l.opts), nil
}

// FindDevice returns a synchronized session on the first candidate that
// answers. Failed candidates are closed before the next one is tried.
func (l *Locator) FindDevice(ctx context.Context) (*osd.Session, error) {
	ports, err := l.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := l.probe(ctx, &ports[i])
		if err == nil {
			log.Debug().Str("port", ports[i].Path).Msg("OSD synchronized")
			return session, nil
		}
		if !osd.IsRecoverable(err) {
			return nil, err
		}
		log.Debug().Err(err).Str("port", ports[i].Path).Msg("candidate rejected")
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no candidate ports", osd.ErrDeviceNotFound)
	}
	return nil, fmt.Errorf("%w (tried %d ports): %w", osd.ErrDeviceNotFound, len(ports), errors.Join(errs...))
}

// AwaitReenumeration repeats FindDevice with backoff until a board
// answers or timeout elapses.
func (l *Locator) AwaitReenumeration(ctx context.Context, timeout time.Duration) (*osd.Session, error) {
	if timeout <= 0 {
		timeout = DefaultReenumerateTimeout
	}
	config := osd.DefaultRetryConfig()
	config.RetryTimeout = timeout

	var session *osd.Session
	err := osd.RetryWithConfig(ctx, config, func(ctx context.Context) error {
		s, err := l.FindDevice(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, osd.ErrDeviceNotFound) {
			return nil, fmt.Errorf("board did not come back within %s: %w", timeout, err)
		}
		return nil, fmt.Errorf("board did not come back within %s: %w: %w", timeout, osd.ErrDeviceNotFound, err)
	}
	return session, nil
}

// probe opens one candidate and synchronizes with it. Single attempt: the
// retry policy belongs to AwaitReenumeration.
func (l *Locator) probe(ctx context.Context, port *PortInfo) (*osd.Session, error) {
	link, err := l.open(port.Path, l.opts.Baud)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port.Path, err)
	}

	session := osd.NewSession(link, l.opts.SessionOptions...)
	timeout := min(l.opts.ScanTimeout, session.Timeouts().Sync)
	if err := session.SyncWithin(ctx, timeout); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

// filterPorts applies IgnorePaths and Blocklist filtering to a port list.
func filterPorts(ports []PortInfo, opts *Options) []PortInfo {
	if len(opts.IgnorePaths) == 0 && len(opts.Blocklist) == 0 {
		return ports
	}

	var filtered []PortInfo
	for _, port := range ports {
		if IsPathIgnored(port.Path, opts.IgnorePaths) {
			continue
		}
		if port.VIDPID != "" && IsBlocked(port.VIDPID, opts.Blocklist) {
			continue
		}
		filtered = append(filtered, port)
	}
	return filtered
}
