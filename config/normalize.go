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
	"strings"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/detection"
)

// Normalize rewrites a validated configuration into canonical form.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Baud == 0 {
		cfg.Baud = osd.DefaultBaud
	}

	for i, entry := range cfg.Blocklist {
		cfg.Blocklist[i] = detection.ParseVIDPID(entry)
	}

	cfg.ChecksumPolicy = strings.ToLower(strings.TrimSpace(cfg.ChecksumPolicy))
	if cfg.ChecksumPolicy == "" {
		cfg.ChecksumPolicy = "fatal"
	}
}
