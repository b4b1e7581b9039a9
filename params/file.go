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

package params

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads Name=Value lines from r on top of the default block.
func (t *Table) Parse(r io.Reader) (Buffer, error) {
	buf := t.Default()

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")

		name, value, ok := strings.Cut(text, "=")
		if !ok {
			return buf, &ParseError{Line: line, Value: text, Err: errMissingEquals}
		}
		name = strings.TrimSpace(name)
		if err := t.Encode(&buf, name, value); err != nil {
			if pe, isParse := err.(*ParseError); isParse {
				pe.Line = line
			}
			return buf, err
		}
	}
	if err := sc.Err(); err != nil {
		return buf, fmt.Errorf("reading parameters: %w", err)
	}
	return buf, nil
}

// Write emits every exported key of buf in ascending name order.
func (t *Table) Write(w io.Writer, buf *Buffer) error {
	bw := bufio.NewWriter(w)
	for _, key := range t.keys {
		value, err := t.Decode(buf, key)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("writing parameters: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing parameters: %w", err)
	}
	return nil
}

// ReadFile loads a parameter file. Settings missing from the file keep
// their default value.
func ReadFile(path string) (Buffer, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return Buffer{}, fmt.Errorf("open parameter file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf, err := std.Parse(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// WriteFile stores buf as a parameter file, replacing any existing file.
func WriteFile(path string, buf *Buffer) error {
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("create parameter file: %w", err)
	}
	if err := std.Write(f, buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close parameter file: %w", err)
	}
	return nil
}
