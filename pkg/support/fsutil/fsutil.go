// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil contains utilities for working with the file system.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ReplaceTildeInDir by the user's home directory. Returns dir if it doesn't start with "~".
//
// It returns an error if dir refers to an unknown user (e.g: "~unknown/...").
func ReplaceTildeInDir(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		return dir, nil
	}
	userName, rest, _ := strings.Cut(dir[1:], "/")
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory for user in path %q", dir)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// PrepareOutput expands "~" in filePath and creates its parent directory if needed.
// It returns the expanded path.
func PrepareOutput(filePath string) (string, error) {
	filePath, err := ReplaceTildeInDir(filePath)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create directory %q for %q", dir, filePath)
		}
	}
	return filePath, nil
}
