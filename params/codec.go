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
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxPanel is the highest panel number a 16-bit mask can hold.
const maxPanel = 16

// ErrParameterParse matches every value or line parse failure.
var ErrParameterParse = errors.New("parameter parse error")

var (
	errOutOfRange    = errors.New("value out of range")
	errMissingEquals = errors.New("expected Name=Value")
)

// ParseError reports a value or parameter file line that could not be
// parsed. errors.Is(err, ErrParameterParse) holds for every ParseError.
type ParseError struct {
	Err   error
	Key   string
	Value string
	Line  int
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("bad parameter item")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, ": %s=%s", e.Key, e.Value)
	} else if e.Value != "" {
		fmt.Fprintf(&b, ": %q", e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every ParseError match ErrParameterParse.
func (*ParseError) Is(target error) bool {
	return target == ErrParameterParse
}

// Encode stores the text value of key into buf. Keys that are not part of
// the schema are ignored so that parameter files from other firmware
// revisions still load.
func (t *Table) Encode(buf *Buffer, key, value string) error {
	p, ok := t.params[key]
	if !ok {
		log.Debug().Str("key", key).Msg("ignoring unknown parameter")
		return nil
	}

	value = strings.TrimSpace(value)
	fail := func(err error) error {
		return &ParseError{Key: key, Value: value, Err: err}
	}

	switch p.Kind {
	case PanelMask:
		mask, err := parsePanels(value)
		if err != nil {
			return fail(err)
		}
		putU16(buf, p.Slot.Offset, mask)

	case ScalePair:
		real, frac, err := parseScale(value)
		if err != nil {
			return fail(err)
		}
		putU16(buf, p.Slot.Offset, real)
		putU16(buf, p.Companion.Offset, frac)

	case SignedMagnitude:
		n, err := parseInt(value)
		if err != nil {
			return fail(err)
		}
		mag, err := magnitude(n)
		if err != nil {
			return fail(err)
		}
		// "-0" keeps its sign so a board value of minus zero round trips.
		var sign uint16 = 1
		if n < 0 || strings.HasPrefix(value, "-") {
			sign = 0
		}
		putU16(buf, p.Slot.Offset, mag)
		putU16(buf, p.Companion.Offset, sign)

	case Magnitude16, Companion:
		n, err := parseInt(value)
		if err != nil {
			return fail(err)
		}
		mag, err := magnitude(n)
		if err != nil {
			return fail(err)
		}
		putU16(buf, p.Slot.Offset, mag)

	default:
		n, err := parseUint16(value)
		if err != nil {
			return fail(err)
		}
		putU16(buf, p.Slot.Offset, n)
	}
	return nil
}

// Decode renders the value of key stored in buf.
func (t *Table) Decode(buf *Buffer, key string) (string, error) {
	p, ok := t.params[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownParameter, key)
	}

	v := getU16(buf, p.Slot.Offset)
	switch p.Kind {
	case PanelMask:
		return formatPanels(v), nil
	case ScalePair:
		frac := getU16(buf, p.Companion.Offset)
		return strconv.FormatUint(uint64(v), 10) + "." + strconv.FormatUint(uint64(frac), 10), nil
	case SignedMagnitude:
		s := strconv.FormatUint(uint64(v), 10)
		if getU16(buf, p.Companion.Offset) == 0 {
			s = "-" + s
		}
		return s, nil
	default:
		return strconv.FormatUint(uint64(v), 10), nil
	}
}

// Encode stores key into buf using the standard schema.
func Encode(buf *Buffer, key, value string) error {
	return std.Encode(buf, key, value)
}

// Decode renders key from buf using the standard schema.
func Decode(buf *Buffer, key string) (string, error) {
	return std.Decode(buf, key)
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %w", err)
	}
	return n, nil
}

func parseUint16(s string) (uint16, error) {
	n, err := parseInt(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d", errOutOfRange, n)
	}
	return uint16(n), nil
}

func magnitude(n int) (uint16, error) {
	if n < 0 {
		n = -n
	}
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d", errOutOfRange, n)
	}
	return uint16(n), nil
}

// parsePanels turns "1,3" into 0b101. Panel 0 selects nothing.
func parsePanels(s string) (uint16, error) {
	var mask uint16
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := parseInt(item)
		if err != nil {
			return 0, err
		}
		if n < 0 || n > maxPanel {
			return 0, fmt.Errorf("%w: panel %d", errOutOfRange, n)
		}
		if n > 0 {
			mask |= 1 << (n - 1)
		}
	}
	return mask, nil
}

func formatPanels(mask uint16) string {
	if mask == 0 {
		return "0"
	}
	panels := make([]string, 0, bits.OnesCount16(mask))
	for i := 1; i <= maxPanel; i++ {
		if mask&(1<<(i-1)) != 0 {
			panels = append(panels, strconv.Itoa(i))
		}
	}
	return strings.Join(panels, ",")
}

// parseScale splits "3.125" into 3 and 125. The fractional digits are kept
// as a plain integer, so "3.01" and "3.1" both store a fraction of 1.
func parseScale(s string) (real, frac uint16, err error) {
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart != "" {
		if real, err = parseUint16(intPart); err != nil {
			return 0, 0, err
		}
	}
	if fracPart != "" {
		if frac, err = parseUint16(fracPart); err != nil {
			return 0, 0, err
		}
	}
	return real, frac, nil
}
