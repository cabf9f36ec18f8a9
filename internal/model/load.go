package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadInput reads and decodes the calendar description at path.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// The decoded record is validated before it is returned.
func LoadInput(path string) (Input, error) {
	if path == "" {
		return Input{}, errors.New("model: input path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("model: read input: %w", err)
	}

	var in Input
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		in, err = DecodeYAML(data)
	default:
		in, err = DecodeJSON(data)
	}
	if err != nil {
		return Input{}, err
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// DecodeJSON decodes a JSON calendar description. Type mismatches and
// trailing garbage are reported as errors; unknown fields are ignored.
func DecodeJSON(data []byte) (Input, error) {
	var in Input
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return Input{}, fmt.Errorf("model: decode json: %w", err)
	}
	if dec.More() {
		return Input{}, errors.New("model: decode json: unexpected data after document")
	}
	return in, nil
}

// DecodeYAML decodes a YAML calendar description using the same keys as JSON.
func DecodeYAML(data []byte) (Input, error) {
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("model: decode yaml: %w", err)
	}
	return in, nil
}
