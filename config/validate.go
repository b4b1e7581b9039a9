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

package config

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-osd/detection"
	"github.com/ZaparooProject/go-osd/flasher"
)

// ErrInvalidConfig matches every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks configuration correctness without mutating it.
func Validate(cfg *Config) error {
	if cfg.Baud < 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", ErrInvalidConfig, cfg.Baud)
	}

	for _, entry := range cfg.Blocklist {
		if detection.ParseVIDPID(entry) == "" {
			return fmt.Errorf("%w: blocklist entry %q is not a VID:PID pair", ErrInvalidConfig, entry)
		}
	}

	seen := make(map[string]bool, len(cfg.Ports))
	for _, p := range cfg.Ports {
		if p == "" {
			return fmt.Errorf("%w: empty port path", ErrInvalidConfig)
		}
		if seen[p] {
			return fmt.Errorf("%w: port %q listed twice", ErrInvalidConfig, p)
		}
		seen[p] = true
	}

	timeouts := []struct {
		name  string
		value int
	}{
		{"sync", cfg.Timeouts.Sync},
		{"erase", cfg.Timeouts.Erase},
		{"settle", cfg.Timeouts.Settle},
		{"scan", cfg.Timeouts.Scan},
		{"reenumerate", cfg.Timeouts.Reenumerate},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			return fmt.Errorf("%w: timeouts_ms.%s must not be negative", ErrInvalidConfig, t.name)
		}
	}

	if _, err := flasher.ParseChecksumPolicy(cfg.ChecksumPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
