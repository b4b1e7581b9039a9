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

//nolint:paralleltest // Tests modify package-level session log state, cannot run in parallel
package osd

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLogLifecycle(t *testing.T) {
	dir := t.TempDir()

	path, err := InitSessionLog(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	assert.Equal(t, path, GetSessionLogPath())
	assert.NotNil(t, SessionLogWriter())

	Debugf("sync on %s", "/dev/ttyACM0")
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, GetSessionLogPath())
	assert.Nil(t, SessionLogWriter())

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== OSD Loader Session Log ===")
	assert.Contains(t, content, "DEBUG: sync on /dev/ttyACM0")
	assert.Contains(t, content, "=== Session ended ===")
}

func TestCloseSessionLogWithoutInit(t *testing.T) {
	require.NoError(t, CloseSessionLog())
}

func TestSetDebugEnabled(t *testing.T) {
	was := DebugEnabled()
	defer SetDebugEnabled(was)

	SetDebugEnabled(true)
	assert.True(t, DebugEnabled())
	SetDebugEnabled(false)
	assert.False(t, DebugEnabled())
}
