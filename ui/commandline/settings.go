// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains command-line tools for the systolic simulator: settings parsing,
// tables with results and statistics, and a progress display for sweeps.
package commandline

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gomlx/systolic/pkg/support/fsutil"
	"github.com/gomlx/systolic/pkg/support/sets"
	"github.com/gomlx/systolic/pkg/systolic/engine"
	"github.com/pkg/errors"
)

// setting binds a settings key to a field of engine.Config.
type setting struct {
	key, usage string
	field      func(cfg *engine.Config) any
}

var knownSettings = []setting{
	{"max_ticks", "ticks to wait for a ready pulse before failing",
		func(cfg *engine.Config) any { return &cfg.MaxTicks }},
	{"trace", "record a signal snapshot per tick",
		func(cfg *engine.Config) any { return &cfg.Trace }},
	{"strict_submit", "fail submissions dropped because both job slots are occupied",
		func(cfg *engine.Config) any { return &cfg.StrictSubmit }},
	{"seed", "seed for the random matrices of the sweep",
		func(cfg *engine.Config) any { return &cfg.Seed }},
	{"sweep", "number of random jobs verified by the sweep",
		func(cfg *engine.Config) any { return &cfg.Sweep }},
	{"overlap", "submit sweep jobs back to back, overlapping them",
		func(cfg *engine.Config) any { return &cfg.Overlap }},
	{"parallelism", "number of engines run in parallel by the sweep (<= 0 for the number of CPUs)",
		func(cfg *engine.Config) any { return &cfg.Parallelism }},
}

func findSetting(key string) (setting, bool) {
	for _, s := range knownSettings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// SettingsKeys returns the keys accepted by ParseSettings, in display order.
func SettingsKeys() []string {
	keys := make([]string, 0, len(knownSettings))
	for _, s := range knownSettings {
		keys = append(keys, s.key)
	}
	return keys
}

// ParseSettings updates cfg from settings, typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "max_ticks=100;trace=true".
//
// An entry "file:<path>" reads settings from the file, one or more per line ("#" starts a comment).
// For integer values, "_" is removed, so large numbers can be written as in Go: 1_000_000.
//
// It returns the keys set, in order, and an error if a key is unknown or a value fails to parse.
func ParseSettings(cfg *engine.Config, settings string) (keysSet []string, err error) {
	for _, entry := range strings.Split(settings, ";") {
		keysSet, err = parseSetting(cfg, entry, keysSet)
		if err != nil {
			return
		}
	}
	return
}

func parseSetting(cfg *engine.Config, entry string, keysSet []string) ([]string, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return keysSet, nil
	}
	if filePath, found := strings.CutPrefix(entry, "file:"); found {
		return parseSettingsFile(cfg, filePath, keysSet)
	}

	key, valueStr, found := strings.Cut(entry, "=")
	if !found {
		return keysSet, errors.Errorf("can't parse setting %q: each setting requires the format \"<key>=<value>\"", entry)
	}
	key = strings.TrimSpace(key)
	valueStr = strings.TrimSpace(valueStr)
	s, found := findSetting(key)
	if !found {
		return keysSet, errors.Errorf("unknown setting %q, valid settings are %q", key, SettingsKeys())
	}
	field := s.field(cfg)
	switch field.(type) {
	case *int, *int64:
		valueStr = strings.ReplaceAll(valueStr, "_", "")
	}
	if err := json.Unmarshal([]byte(valueStr), field); err != nil {
		return keysSet, errors.Wrapf(err, "failed to parse value %q for setting %q", valueStr, key)
	}
	return append(keysSet, key), nil
}

func parseSettingsFile(cfg *engine.Config, filePath string, keysSet []string) ([]string, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return keysSet, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return keysSet, errors.Wrapf(err, "failed to read settings from file %q", filePath)
	}
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, entry := range strings.Split(line, ";") {
			keysSet, err = parseSetting(cfg, entry, keysSet)
			if err != nil {
				return keysSet, errors.WithMessagef(err, "in settings file %q", filePath)
			}
		}
	}
	return keysSet, nil
}

// CreateSettingsFlag creates a string flag with the given flagName (if empty it will be named "set"),
// with a usage listing the settings and their defaults in cfg.
//
// The flag should be created before the call to flag.Parse(), and its value given to ParseSettings.
func CreateSettingsFlag(cfg engine.Config, flagName string) *string {
	if flagName == "" {
		flagName = "set"
	}
	parts := []string{
		`Engine settings, a list of "key=value" separated by ";". ` +
			`An entry "file:<path>" reads settings from a file, with new-lines working as ";" ` +
			`and lines starting with "#" ignored. ` +
			fmt.Sprintf("Defaults can be given in $%s. Settings:", engine.SettingsEnv),
	}
	for _, s := range knownSettings {
		parts = append(parts, fmt.Sprintf("%q: %s (default %v)", s.key, s.usage, settingValue(&cfg, s)))
	}
	var settings string
	flag.StringVar(&settings, flagName, "", strings.Join(parts, "\n"))
	return &settings
}

func settingValue(cfg *engine.Config, s setting) any {
	switch v := s.field(cfg).(type) {
	case *int:
		return *v
	case *int64:
		return *v
	case *bool:
		return *v
	default:
		return v
	}
}

// SprintSettings renders the configuration as a table. Keys in modified (as returned by ParseSettings)
// are marked with a "*".
func SprintSettings(cfg engine.Config, modified []string) string {
	set := sets.New(modified...)
	table := newPlainTable(true)
	table.Headers("Setting", "Value", "")
	for _, s := range knownSettings {
		var mark string
		if set.Has(s.key) {
			mark = "*"
		}
		table.Row(s.key, fmt.Sprintf("%v", settingValue(&cfg, s)), mark)
	}
	return table.Render()
}
