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
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	if os.Getenv("OSD_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		SetDebugEnabled(true)
	}
}

// Debugf logs wire level detail. It always goes to the session log file
// (if one is open) and reaches the console logger at debug level.
func Debugf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)

	if w := sessionLog(); w != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(w, "%s DEBUG: %s\n", timestamp, message)
	}

	log.Debug().Msg(message)
}

// SetDebugEnabled switches the global log level between debug and info.
func SetDebugEnabled(enabled bool) {
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// DebugEnabled reports whether debug output reaches the console.
func DebugEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}
