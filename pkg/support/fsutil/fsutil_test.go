// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceTildeInDir(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	for _, dir := range []string{"", "/tmp/x", "relative/path"} {
		got, err := ReplaceTildeInDir(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	}
	got, err := ReplaceTildeInDir("~")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(usr.HomeDir), got)
	got, err = ReplaceTildeInDir("~/traces/a.jsonl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "traces", "a.jsonl"), got)
	got, err = ReplaceTildeInDir("~" + usr.Username + "/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(usr.HomeDir, "b"), got)

	_, err = ReplaceTildeInDir("~no_such_user_for_sure/c")
	require.Error(t, err)
}

func TestPrepareOutput(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "a", "b", "plot.png")
	got, err := PrepareOutput(filePath)
	require.NoError(t, err)
	assert.Equal(t, filePath, got)
	info, err := os.Stat(filepath.Dir(filePath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
