package manifest

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Validation errors for descriptor versioning.
var (
	// ErrUnsupportedAPIVersion indicates an unknown or unsupported API version.
	ErrUnsupportedAPIVersion = errors.New("unsupported API version")

	// ErrInvalidKind indicates an unknown descriptor kind.
	ErrInvalidKind = errors.New("invalid descriptor kind")

	// ErrKindMismatch indicates the kind doesn't match what was expected.
	ErrKindMismatch = errors.New("kind mismatch")
)

// DescriptorMeta contains the common metadata fields from a descriptor file.
type DescriptorMeta struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// ValidateAPIVersion checks if the provided version is supported.
// An empty version is accepted.
func ValidateAPIVersion(version string) error {
	if version == "" {
		return nil
	}

	for _, supported := range SupportedAPIVersions {
		if version == supported {
			return nil
		}
	}

	return fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedAPIVersion, version, SupportedAPIVersions)
}

// ValidateKind checks if the provided kind is valid and matches the expected kind.
// An empty kind is accepted.
func ValidateKind(kind, expected string) error {
	if kind == "" {
		return nil
	}

	valid := false
	for _, supported := range SupportedKinds {
		if kind == supported {
			valid = true
			break
		}
	}

	if !valid {
		return fmt.Errorf("%w: %s (supported: %v)", ErrInvalidKind, kind, SupportedKinds)
	}

	if kind != expected {
		return fmt.Errorf("%w: got %s, expected %s", ErrKindMismatch, kind, expected)
	}

	return nil
}

// ValidateHeader extracts and validates apiVersion and kind from raw descriptor YAML.
func ValidateHeader(data []byte) (*DescriptorMeta, error) {
	var meta DescriptorMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse descriptor metadata: %w", err)
	}

	if err := ValidateAPIVersion(meta.APIVersion); err != nil {
		return &meta, err
	}

	if err := ValidateKind(meta.Kind, KindApplication); err != nil {
		return &meta, err
	}

	return &meta, nil
}

// ValidateDescriptor checks the fields the generator requires.
func ValidateDescriptor(d *Descriptor) error {
	if d == nil {
		return &ConfigurationError{Field: "descriptor", Reason: "missing"}
	}

	if d.Name == "" {
		return &ConfigurationError{Field: "name", Reason: "required"}
	}
	if errs := validation.IsDNS1123Label(d.Name); len(errs) > 0 {
		return &ConfigurationError{Field: "name", Reason: strings.Join(errs, "; ")}
	}

	if d.Version == "" {
		return &ConfigurationError{Field: "version", Reason: "required"}
	}
	if errs := validation.IsValidLabelValue(d.Version); len(errs) > 0 {
		return &ConfigurationError{Field: "version", Reason: strings.Join(errs, "; ")}
	}

	if d.HTTPPort < 0 || d.HTTPPort > 65535 {
		return &ConfigurationError{Field: "httpPort", Reason: fmt.Sprintf("%d is out of range", d.HTTPPort)}
	}

	if d.Replicas < 0 {
		return &ConfigurationError{Field: "replicas", Reason: "must not be negative"}
	}

	for _, c := range d.Capabilities {
		if _, err := ParseCapability(string(c)); err != nil {
			return err
		}
	}

	return nil
}

// validateProbe checks a single probe declaration.
func validateProbe(p ProbeSpec) error {
	field := "probes." + strings.ToLower(string(p.Kind))

	switch p.Kind {
	case ProbeLiveness, ProbeReadiness:
	default:
		return &ConfigurationError{Field: "probes", Reason: fmt.Sprintf("unknown probe kind %q", p.Kind)}
	}

	if p.Path == "" {
		return &ConfigurationError{Field: field + ".path", Reason: "required"}
	}
	if !strings.HasPrefix(p.Path, "/") {
		return &ConfigurationError{Field: field + ".path", Reason: fmt.Sprintf("%q must start with /", p.Path)}
	}

	if p.Port < 0 || p.Port > 65535 {
		return &ConfigurationError{Field: field + ".port", Reason: fmt.Sprintf("%d is out of range", p.Port)}
	}

	return nil
}
