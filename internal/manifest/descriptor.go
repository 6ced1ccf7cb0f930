package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DescriptorFile is the conventional descriptor file name.
const DescriptorFile = "keel.yml"

// LoadDescriptor reads a descriptor file, expands ${VAR} references from the
// environment and applies an optional values overlay.
func LoadDescriptor(path string, overlay map[string]any) (*Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	expanded, err := Interpolate(string(content), os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d, err := ParseDescriptor([]byte(expanded), overlay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return d, nil
}

// ParseDescriptor parses descriptor YAML, deep-merges overlay on top of it and
// decodes the result. Unknown fields are rejected.
func ParseDescriptor(content []byte, overlay map[string]any) (*Descriptor, error) {
	if _, err := ValidateHeader(content); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	if len(overlay) > 0 {
		raw = DeepMerge(raw, overlay)
	}

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal merged descriptor: %w", err)
	}

	// The overlay may set apiVersion or kind.
	if _, err := ValidateHeader(merged); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(merged))
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}

	return &d, nil
}

// LoadValuesOverlay loads a values overlay file.
func LoadValuesOverlay(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("parse values file: %w", err)
	}

	return values, nil
}
