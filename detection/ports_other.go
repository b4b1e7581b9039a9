//go:build !linux

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
	"context"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ListPorts returns the serial ports on the host. USB ports carry their
// identifiers when the platform driver reports them.
func ListPorts(_ context.Context) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		ports := make([]PortInfo, 0, len(details))
		for _, d := range details {
			port := PortInfo{Path: d.Name, Name: d.Name, Product: d.Product, SerialNumber: d.SerialNumber}
			if d.IsUSB {
				port.VIDPID = formatVIDPID(d.VID, d.PID)
			}
			ports = append(ports, port)
		}
		return ports, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, PortInfo{Path: name, Name: name})
	}
	return ports, nil
}
