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

// Package params maps the human readable OSD settings onto the fixed
// 1024-byte configuration block stored by the device.
//
// Every setting occupies one or two little-endian 16-bit slots. Most are a
// plain number, but a few use their own text encoding:
//
//   - panel selections are comma separated 1-based panel lists stored as a
//     bitmask ("2,4" is stored as 10)
//   - attitude scales are "int.frac" strings stored as two independent
//     slots, <name>_Real and <name>_Frac
//   - Misc_Start_Col is a signed value stored as a magnitude plus a
//     Misc_Start_Col_Sign slot (1 positive, 0 negative)
//   - Misc_Start_Row is stored as an absolute value
//
// The encoding of each slot is fixed when the table is built; encode and
// decode resolve keys by exact lookup.
package params

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BufferSize is the size of the on-device parameter block.
const BufferSize = 1024

const slotWidth = 2

// Slot name suffixes tying companion slots to their owner.
const (
	suffixReal = "_Real"
	suffixFrac = "_Frac"
	suffixSign = "_Sign"
)

// Buffer is the raw parameter block exchanged with the device.
type Buffer [BufferSize]byte

// Kind selects how a slot's text value is encoded.
type Kind int

const (
	// Plain16 is a single unsigned 16-bit value.
	Plain16 Kind = iota
	// PanelMask is a comma separated list of 1-based panel numbers.
	PanelMask
	// ScalePair is the integer half of an "int.frac" value; the fractional
	// half lives in the <base>_Frac companion slot.
	ScalePair
	// SignedMagnitude is a magnitude whose sign lives in the <name>_Sign
	// companion slot.
	SignedMagnitude
	// Magnitude16 stores the absolute value of a signed input.
	Magnitude16
	// Companion is the second half of a ScalePair or SignedMagnitude.
	Companion
)

func (k Kind) String() string {
	switch k {
	case Plain16:
		return "plain16"
	case PanelMask:
		return "panel_mask"
	case ScalePair:
		return "scale_pair"
	case SignedMagnitude:
		return "signed_magnitude"
	case Magnitude16:
		return "magnitude16"
	case Companion:
		return "companion"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SlotDef is one entry of the ordered layout. Offsets come from position.
type SlotDef struct {
	Name    string
	Default uint16
}

// Slot is a registered 16-bit field of the parameter block.
type Slot struct {
	Name    string
	Offset  int
	Default uint16
	Kind    Kind
}

// Param is a key as it appears in a parameter file. It references the
// slot(s) that store it.
type Param struct {
	// Companion is the _Frac or _Sign slot; nil for single-slot kinds.
	Companion *Slot
	Slot      *Slot
	Key       string
	Kind      Kind
}

// Table errors
var (
	ErrDuplicateSlot     = errors.New("duplicate parameter slot")
	ErrTableOverflow     = errors.New("parameter table exceeds buffer")
	ErrMissingCompanion  = errors.New("companion slot not registered")
	ErrUnknownParameter  = errors.New("unknown parameter")
)

// excluded slots are never written to a parameter file: the sign
// companion, the fractional halves (emitted through their owner), unused
// fields, and the device-owned firmware version.
var excluded = map[string]bool{
	"Misc_Start_Col_Sign":    true,
	"Altitude_Scale_Source":  true,
	"Speed_Scale_Source":     true,
	"Attitude_MP_Scale_Frac": true,
	"Attitude_3D_Scale_Frac": true,
	"Attitude_MP_Mode":       true,
	"Misc_Firmware_ver":      true,
}

// Table is an immutable parameter schema.
type Table struct {
	slotIndex map[string]int
	params    map[string]*Param
	slots     []Slot
	keys      []string
	defaults  Buffer
}

// classify assigns the encoding of a slot from its name. It is evaluated
// once per slot while the table is built, in this order.
func classify(name string) Kind {
	switch {
	case strings.Contains(name, "_Panel") &&
		!strings.Contains(name, "PWM") &&
		!strings.Contains(name, "Max_Panels"):
		return PanelMask
	case strings.Contains(name, "Attitude_") && strings.Contains(name, "_Scale"):
		if strings.HasSuffix(name, suffixFrac) {
			return Companion
		}
		return ScalePair
	case strings.Contains(name, "Misc_Start_Row"):
		return Magnitude16
	case strings.Contains(name, "Misc_Start_Col"):
		if strings.HasSuffix(name, suffixSign) {
			return Companion
		}
		return SignedMagnitude
	default:
		return Plain16
	}
}

// NewTable builds a schema from an ordered layout.
func NewTable(defs []SlotDef) (*Table, error) {
	if len(defs)*slotWidth > BufferSize {
		return nil, fmt.Errorf("%w: %d slots", ErrTableOverflow, len(defs))
	}

	t := &Table{
		slots:     make([]Slot, 0, len(defs)),
		slotIndex: make(map[string]int, len(defs)),
		params:    make(map[string]*Param, len(defs)),
	}

	for i, def := range defs {
		if _, dup := t.slotIndex[def.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlot, def.Name)
		}
		slot := Slot{
			Name:    def.Name,
			Offset:  i * slotWidth,
			Default: def.Default,
			Kind:    classify(def.Name),
		}
		t.slotIndex[def.Name] = len(t.slots)
		t.slots = append(t.slots, slot)
		putU16(&t.defaults, slot.Offset, slot.Default)
	}

	if err := t.indexParams(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) indexParams() error {
	for i := range t.slots {
		slot := &t.slots[i]
		switch slot.Kind {
		case ScalePair:
			base := strings.TrimSuffix(slot.Name, suffixReal)
			frac, ok := t.slot(base + suffixFrac)
			if !ok || base == slot.Name {
				return fmt.Errorf("%w: %s%s", ErrMissingCompanion, base, suffixFrac)
			}
			t.params[base] = &Param{Key: base, Kind: ScalePair, Slot: slot, Companion: frac}
		case SignedMagnitude:
			sign, ok := t.slot(slot.Name + suffixSign)
			if !ok {
				return fmt.Errorf("%w: %s%s", ErrMissingCompanion, slot.Name, suffixSign)
			}
			t.params[slot.Name] = &Param{Key: slot.Name, Kind: SignedMagnitude, Slot: slot, Companion: sign}
		case Companion:
			// A scale fraction is only reachable through its owner. A sign
			// slot may be written directly and takes a magnitude.
			if strings.HasSuffix(slot.Name, suffixSign) {
				t.params[slot.Name] = &Param{Key: slot.Name, Kind: Companion, Slot: slot}
			}
		default:
			t.params[slot.Name] = &Param{Key: slot.Name, Kind: slot.Kind, Slot: slot}
		}
	}

	for _, slot := range t.slots {
		if excluded[slot.Name] || slot.Kind == Companion {
			continue
		}
		key := slot.Name
		if slot.Kind == ScalePair {
			key = strings.TrimSuffix(key, suffixReal)
		}
		t.keys = append(t.keys, key)
	}
	sort.Strings(t.keys)
	return nil
}

func (t *Table) slot(name string) (*Slot, bool) {
	i, ok := t.slotIndex[name]
	if !ok {
		return nil, false
	}
	return &t.slots[i], true
}

// Slot returns the registered slot with the given name.
func (t *Table) Slot(name string) (Slot, bool) {
	s, ok := t.slot(name)
	if !ok {
		return Slot{}, false
	}
	return *s, true
}

// Slots returns the layout in offset order.
func (t *Table) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Lookup resolves a parameter file key.
func (t *Table) Lookup(key string) (Param, bool) {
	p, ok := t.params[key]
	if !ok {
		return Param{}, false
	}
	return *p, true
}

// Keys returns the keys written to a parameter file, in file order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Default returns a copy of the default parameter block.
func (t *Table) Default() Buffer {
	return t.defaults
}

// Excluded reports whether a slot is kept out of parameter files.
func Excluded(name string) bool {
	return excluded[name]
}

var std = mustNewTable(slotDefs)

func mustNewTable(defs []SlotDef) *Table {
	t, err := NewTable(defs)
	if err != nil {
		panic(fmt.Sprintf("params: invalid built-in table: %v", err))
	}
	return t
}

// Standard returns the schema of the supported OSD firmware.
func Standard() *Table {
	return std
}

// Default returns the default parameter block of the standard schema.
func Default() Buffer {
	return std.Default()
}

func putU16(buf *Buffer, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+slotWidth], v)
}

func getU16(buf *Buffer, offset int) uint16 {
	return binary.LittleEndian.Uint16(buf[offset : offset+slotWidth])
}
