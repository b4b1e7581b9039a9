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

package detection

import (
	"fmt"
	"runtime"
)

// defaultACMPorts is how many /dev/ttyACM<n> nodes are tried on Linux.
const defaultACMPorts = 5

// PortInfo describes one candidate serial port.
type PortInfo struct {
	// Connection path (e.g., "/dev/ttyACM0", "COM3")
	Path string
	// Kernel or driver name
	Name string
	// USB VID:PID in uppercase hex, empty when unknown
	VIDPID       string
	Manufacturer string
	Product      string
	SerialNumber string
}

// String returns a human-readable representation of the port
func (p PortInfo) String() string {
	switch {
	case p.VIDPID != "" && p.Product != "":
		return fmt.Sprintf("%s [%s %s]", p.Path, p.VIDPID, p.Product)
	case p.VIDPID != "":
		return fmt.Sprintf("%s [%s]", p.Path, p.VIDPID)
	default:
		return p.Path
	}
}

// DefaultPorts returns the fixed candidate family for the platform. On
// Linux these are /dev/ttyACM0 to /dev/ttyACM4, where the board's CDC
// interface enumerates. Other platforms have no fixed names and rely on
// enumeration.
func DefaultPorts() []PortInfo {
	if runtime.GOOS != "linux" {
		return nil
	}
	ports := make([]PortInfo, 0, defaultACMPorts)
	for i := range defaultACMPorts {
		name := fmt.Sprintf("ttyACM%d", i)
		ports = append(ports, PortInfo{Path: "/dev/" + name, Name: name})
	}
	return ports
}

// mergePorts appends the listed ports that are not already in base.
// Metadata from a listed port fills in a matching base entry.
func mergePorts(base, listed []PortInfo) []PortInfo {
	index := make(map[string]int, len(base))
	for i, p := range base {
		index[normalizedPath(p.Path)] = i
	}

	for _, p := range listed {
		key := normalizedPath(p.Path)
		if i, ok := index[key]; ok {
			if base[i].VIDPID == "" {
				name := base[i].Name
				base[i] = p
				if p.Name == "" {
					base[i].Name = name
				}
			}
			continue
		}
		index[key] = len(base)
		base = append(base, p)
	}
	return base
}
