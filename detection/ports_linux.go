//go:build linux

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
	"os"
	"path/filepath"
	"strings"
)

const sysfsRoot = "/sys"

// ListPorts returns the USB serial ports on the host with their USB
// identifiers, read from sysfs.
func ListPorts(ctx context.Context) ([]PortInfo, error) {
	ports, err := listSysfsPorts(ctx, sysfsRoot)
	if err == nil && len(ports) > 0 {
		return ports, nil
	}
	return listPortsFallback(ctx)
}

// listSysfsPorts walks <root>/class/tty for ttys backed by a USB device.
func listSysfsPorts(_ context.Context, root string) ([]PortInfo, error) {
	ttyDir := filepath.Join(root, "class", "tty")
	entries, err := os.ReadDir(ttyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", ttyDir, err)
	}

	var ports []PortInfo
	for _, entry := range entries {
		if port, ok := usbPortEntry(root, ttyDir, entry); ok {
			ports = append(ports, port)
		}
	}
	return ports, nil
}

func usbPortEntry(root, ttyDir string, entry os.DirEntry) (PortInfo, bool) {
	if entry.IsDir() {
		return PortInfo{}, false
	}

	// Only ttys with a device link are backed by hardware
	devicePath := filepath.Join(ttyDir, entry.Name(), "device")
	if _, err := os.Stat(devicePath); err != nil {
		return PortInfo{}, false
	}

	resolved, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return PortInfo{}, false
	}
	if !strings.Contains(resolved, "/usb") {
		return PortInfo{}, false
	}

	port := PortInfo{
		Path: "/dev/" + entry.Name(),
		Name: entry.Name(),
	}
	readUSBAttributes(&port, root, resolved)
	return port, true
}

// readUSBAttributes reads USB device attributes by walking up the device tree
func readUSBAttributes(port *PortInfo, root, devicePath string) {
	current := devicePath
	for range 10 { // Limit iterations to prevent infinite loops
		if readUSBIdentifiers(port, root, current) {
			break
		}

		current = filepath.Dir(current)
		if current == "/" || current == "." {
			break
		}
	}
}

// underRoot reports whether path lies inside the sysfs root.
func underRoot(root, path string) bool {
	root = filepath.Clean(root)
	cleanPath := filepath.Clean(path)
	return cleanPath == root || strings.HasPrefix(cleanPath, root+string(filepath.Separator))
}

// readUSBIdentifiers reads vendor/product IDs and descriptors from USB device
func readUSBIdentifiers(port *PortInfo, root, path string) bool {
	if !underRoot(root, path) {
		return false
	}

	vidBytes, vidErr := os.ReadFile(filepath.Join(path, "idVendor")) // #nosec G304 -- Path is validated to be under sysfs
	if vidErr != nil {
		return false
	}

	pidBytes, pidErr := os.ReadFile(filepath.Join(path, "idProduct")) // #nosec G304 -- Path is validated to be under sysfs
	if pidErr != nil {
		return false
	}

	vid := strings.TrimSpace(string(vidBytes))
	pid := strings.TrimSpace(string(pidBytes))
	port.VIDPID = formatVIDPID(vid, pid)

	readUSBDescriptors(port, path)
	return true
}

// readUSBDescriptors reads manufacturer, product, and serial number
func readUSBDescriptors(port *PortInfo, path string) {
	// #nosec G304 -- Path is validated to be under sysfs
	if mfgBytes, err := os.ReadFile(filepath.Join(path, "manufacturer")); err == nil {
		port.Manufacturer = strings.TrimSpace(string(mfgBytes))
	}
	// #nosec G304 -- Path is validated to be under sysfs
	if prodBytes, err := os.ReadFile(filepath.Join(path, "product")); err == nil {
		port.Product = strings.TrimSpace(string(prodBytes))
	}
	// #nosec G304 -- Path is validated to be under sysfs
	if serialBytes, err := os.ReadFile(filepath.Join(path, "serial")); err == nil {
		port.SerialNumber = strings.TrimSpace(string(serialBytes))
	}
}

// listPortsFallback globs for USB serial nodes without metadata.
func listPortsFallback(_ context.Context) ([]PortInfo, error) {
	var ports []PortInfo
	for _, pattern := range []string{"/dev/ttyACM*", "/dev/ttyUSB*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			if _, err := os.Stat(path); err == nil {
				ports = append(ports, PortInfo{
					Path: path,
					Name: filepath.Base(path),
				})
			}
		}
	}
	return ports, nil
}
