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

package main

import (
	"io"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// infoWriter passes on info and above. Debug lines reach the session log
// through osd.Debugf already.
type infoWriter struct {
	w io.Writer
}

func (iw infoWriter) Write(p []byte) (int, error) {
	return iw.w.Write(p)
}

func (iw infoWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.InfoLevel {
		return len(p), nil
	}
	return iw.w.Write(p)
}

// setupLogging installs the console logger, teed into the session log
// when one is open.
func setupLogging(console io.Writer, debug bool) {
	var out io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
	if sessionLog := osd.SessionLogWriter(); sessionLog != nil {
		out = zerolog.MultiLevelWriter(out, infoWriter{w: zerolog.ConsoleWriter{
			Out:        sessionLog,
			NoColor:    true,
			TimeFormat: "15:04:05.000",
		}})
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	osd.SetDebugEnabled(debug)
}
