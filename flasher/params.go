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

package flasher

import (
	"context"

	"github.com/ZaparooProject/go-osd/params"
	"github.com/rs/zerolog/log"
)

// UploadParams stores a parameter file on the board. An empty path
// uploads the defaults. The file is parsed before the board is touched.
func (f *Flasher) UploadParams(ctx context.Context, path string) error {
	buf, err := loadParams(path)
	if err != nil {
		return err
	}

	session, err := f.locator.FindDevice(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	log.Info().Str("port", session.Path()).Msg("sending parameters to board")
	if err := session.UploadParams(ctx, &buf); err != nil {
		return err
	}
	log.Info().Msg("parameters stored on the board")
	return nil
}

// DownloadParams reads the board's parameters and writes them to path.
func (f *Flasher) DownloadParams(ctx context.Context, path string) error {
	session, err := f.locator.FindDevice(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	log.Info().Str("port", session.Path()).Msg("getting parameters from board")
	buf, err := session.DownloadParams(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("file", path).Msg("saving parameters")
	return params.WriteFile(path, &buf)
}

func loadParams(path string) (params.Buffer, error) {
	if path == "" {
		log.Info().Msg("loading default parameters")
		return params.Default(), nil
	}
	log.Info().Str("file", path).Msg("loading parameters")
	return params.ReadFile(path)
}
