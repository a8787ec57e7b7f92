// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// DecodeStrict decodes data into v. Files named *.yaml or *.yml are parsed as
// YAML and converted to JSON first, so both formats share the same strict
// decoder: unknown fields and trailing data are rejected.
func DecodeStrict(path string, data []byte, v any) error {
	jb, err := coerceToJSONBytes(path, data)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("trailing data")
		}
		return err
	}
	return nil
}

// IsYAML reports whether path has a YAML file extension.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// coerceToJSONBytes converts YAML to JSON. Data that is not YAML (by file
// extension) is returned as is.
func coerceToJSONBytes(path string, data []byte) ([]byte, error) {
	if !IsYAML(path) {
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	// yaml permits non-string mapping keys (e.g. `1: x`), JSON objects don't
	var stringKeys func(v any) any
	stringKeys = func(v any) any {
		switch v := v.(type) {
		case map[any]any:
			out := make(map[string]any, len(v))
			for key, val := range v {
				out[fmt.Sprint(key)] = stringKeys(val)
			}
			return out
		case map[string]any:
			for key, val := range v {
				v[key] = stringKeys(val)
			}
		case []any:
			for i, val := range v {
				v[i] = stringKeys(val)
			}
		}
		return v
	}

	b, err := json.Marshal(stringKeys(doc))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return b, nil
}

// ParseDurationField parses a non-negative duration. The empty string is
// zero. Errors are prefixed with field, the path of the value being parsed.
func ParseDurationField(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", field)
	}
	return d, nil
}
