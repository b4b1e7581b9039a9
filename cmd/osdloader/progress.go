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
	"fmt"
	"io"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/schollz/progressbar/v3"
)

var phaseDescriptions = map[osd.Phase]string{
	osd.PhaseProgramming:    "Writing firmware",
	osd.PhaseParamsUpload:   "Writing parameters",
	osd.PhaseParamsDownload: "Reading parameters",
}

// progressReporter draws one bar per transfer phase.
type progressReporter struct {
	out   io.Writer
	bar   *progressbar.ProgressBar
	phase osd.Phase
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

func (r *progressReporter) update(p osd.Progress) {
	desc, ok := phaseDescriptions[p.Phase]
	if !ok || p.BytesTotal == 0 {
		return
	}
	if r.bar == nil || r.phase != p.Phase {
		r.finish()
		r.phase = p.Phase
		r.bar = progressbar.NewOptions(p.BytesTotal,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowBytes(true),
		)
	}
	_ = r.bar.Set(p.BytesDone)
}

func (r *progressReporter) finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	_, _ = fmt.Fprintln(r.out)
	r.bar = nil
}
