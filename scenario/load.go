// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package scenario

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joeycumines/go-deferloop/internal/config"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// ErrUnknownBuiltin is returned by Builtin for names not in BuiltinNames.
var ErrUnknownBuiltin = errors.New("scenario: unknown builtin")

// Parse decodes a scenario. The name selects the format (*.yaml and *.yml
// are YAML, anything else JSON), unknown fields are rejected. io steps of
// the returned scenario complete immediately, see [Scenario.WithFS].
func Parse(name string, data []byte) (*Scenario, error) {
	var s Scenario
	if err := config.DecodeStrict(name, data, &s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return &s, nil
}

// Load reads and parses the scenario file at name. io step paths are
// resolved relative to the file's directory.
func Load(name string) (*Scenario, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	s, err := Parse(name, b)
	if err != nil {
		return nil, err
	}
	s.fsys = os.DirFS(filepath.Dir(name))
	return s, nil
}

// Builtin returns one of the embedded scenarios. io steps read the embedded
// scenario files.
func Builtin(name string) (*Scenario, error) {
	file := name + ".yaml"
	b, err := builtinFS.ReadFile(path.Join("builtin", file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownBuiltin, name, strings.Join(BuiltinNames(), ", "))
		}
		return nil, err
	}
	s, err := Parse(file, b)
	if err != nil {
		return nil, err
	}
	s.fsys, err = fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	return s, nil
}

// BuiltinNames lists the embedded scenarios, sorted.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		panic(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}
