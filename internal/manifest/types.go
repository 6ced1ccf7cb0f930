// Package manifest implements the keel manifest engine for generating
// Kubernetes Deployment and Service resources from an application descriptor.
package manifest

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
)

// API version and kind constants for descriptor versioning.
const (
	// APIVersionV1 is the current API version for keel descriptors.
	APIVersionV1 = "keel.io/v1"

	// KindApplication identifies an Application descriptor.
	KindApplication = "Application"
)

// SupportedAPIVersions lists all API versions that can be loaded.
var SupportedAPIVersions = []string{APIVersionV1}

// SupportedKinds lists all valid descriptor kinds.
var SupportedKinds = []string{KindApplication}

// DefaultHTTPPort is the container port used when a descriptor declares none.
const DefaultHTTPPort = 8080

// DefaultReplicas is the Deployment replica count used when a descriptor declares none.
const DefaultReplicas = 1

// PortNameHTTP names the primary container port.
const PortNameHTTP = "http"

// ManagedBy is the value of the app.kubernetes.io/managed-by label.
const ManagedBy = "keel"

// Standard label keys applied to every generated resource.
const (
	LabelName      = "app.kubernetes.io/name"
	LabelVersion   = "app.kubernetes.io/version"
	LabelManagedBy = "app.kubernetes.io/managed-by"
)

// Capability is an optional module whose presence changes generated output.
type Capability string

const (
	// CapabilityKubernetes is always present when manifests are generated.
	CapabilityKubernetes Capability = "kubernetes"

	// CapabilityHealth adds liveness and readiness probes.
	CapabilityHealth Capability = "health"
)

// KnownCapabilities lists every capability keel understands.
var KnownCapabilities = Capabilities{CapabilityKubernetes, CapabilityHealth}

// ParseCapability converts a name from keel.yml or --with to a Capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	if !KnownCapabilities.Has(c) {
		return "", &ConfigurationError{Field: "capabilities", Reason: fmt.Sprintf("unknown capability %q (known: %v)", s, KnownCapabilities.Strings())}
	}
	return c, nil
}

// Capabilities is an ordered, duplicate-free capability list.
type Capabilities []Capability

// Has reports whether c is in the list.
func (cs Capabilities) Has(c Capability) bool {
	for _, have := range cs {
		if have == c {
			return true
		}
	}
	return false
}

// With returns a copy of cs with the given capabilities appended, skipping duplicates.
func (cs Capabilities) With(more ...Capability) Capabilities {
	out := make(Capabilities, 0, len(cs)+len(more))
	for _, c := range append(append(Capabilities{}, cs...), more...) {
		if c == "" || out.Has(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Strings returns the capability names in order.
func (cs Capabilities) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// Descriptor describes the application manifests are generated for.
// It is loaded from keel.yml and treated as immutable afterwards.
type Descriptor struct {
	// APIVersion identifies the schema version (e.g., "keel.io/v1").
	APIVersion string `yaml:"apiVersion,omitempty"`

	// Kind identifies the descriptor type ("Application").
	Kind string `yaml:"kind,omitempty"`

	// Name is the application name. Must be a DNS-1123 label.
	Name string `yaml:"name"`

	// Version is the free-form application version.
	Version string `yaml:"version"`

	// HTTPPort is the primary container port. Zero means DefaultHTTPPort.
	HTTPPort int `yaml:"httpPort,omitempty"`

	// Capabilities lists forced capabilities (e.g., health).
	Capabilities Capabilities `yaml:"capabilities,omitempty"`

	// Image is an explicit image reference. Rendered from a template when empty.
	Image string `yaml:"image,omitempty"`

	// Group is the registry group used by the default image template.
	Group string `yaml:"group,omitempty"`

	// Replicas is the Deployment replica count. Zero means DefaultReplicas.
	Replicas int32 `yaml:"replicas,omitempty"`

	// Labels are added to every generated resource.
	Labels map[string]string `yaml:"labels,omitempty"`

	// Annotations are added to every generated resource.
	Annotations map[string]string `yaml:"annotations,omitempty"`

	// Env is passed to the container, sorted by key.
	Env map[string]string `yaml:"env,omitempty"`
}

// Port returns the declared HTTP port or DefaultHTTPPort.
func (d *Descriptor) Port() int {
	if d.HTTPPort > 0 {
		return d.HTTPPort
	}
	return DefaultHTTPPort
}

// ProbeKind distinguishes liveness from readiness probes.
type ProbeKind string

const (
	ProbeLiveness  ProbeKind = "LIVENESS"
	ProbeReadiness ProbeKind = "READINESS"
)

// Probe timing defaults.
const (
	DefaultPeriodSeconds    = 30
	DefaultTimeoutSeconds   = 10
	DefaultSuccessThreshold = 1
	DefaultFailureThreshold = 3
)

// ProbeSpec declares an HTTP GET health check on a container.
type ProbeSpec struct {
	Kind ProbeKind

	// Path must be non-empty and start with "/".
	Path string

	// Port is the target port. Zero means the container's primary port.
	Port int

	InitialDelaySeconds int32
	PeriodSeconds       int32
	TimeoutSeconds      int32
	SuccessThreshold    int32
	FailureThreshold    int32
}

// NewProbeSpec returns a probe with default timings.
func NewProbeSpec(kind ProbeKind, path string) ProbeSpec {
	return ProbeSpec{
		Kind:             kind,
		Path:             path,
		PeriodSeconds:    DefaultPeriodSeconds,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		SuccessThreshold: DefaultSuccessThreshold,
		FailureThreshold: DefaultFailureThreshold,
	}
}

// ContainerPort is a named container port.
type ContainerPort struct {
	Name string
	Port int
}

// ContainerSpec is the single container of the generated pod template.
type ContainerSpec struct {
	Name  string
	Image string

	// Ports are exposed in order. The first is the primary port.
	Ports []ContainerPort

	Liveness  *ProbeSpec
	Readiness *ProbeSpec

	Env map[string]string
}

// Bundle is the ordered set of generated resources. The Deployment is always
// at index 0. A Bundle is not mutated after Generate returns it.
type Bundle struct {
	resources []runtime.Object
}

// Resources returns a copy of the resource list.
func (b *Bundle) Resources() []runtime.Object {
	out := make([]runtime.Object, len(b.resources))
	copy(out, b.resources)
	return out
}

// Len returns the number of resources.
func (b *Bundle) Len() int {
	return len(b.resources)
}

// Format is a manifest encoding.
type Format string

const (
	// FormatYAML is the structured-text encoding.
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON encoding.
	FormatJSON Format = "json"
)

// Formats lists every supported format in output order.
var Formats = []Format{FormatJSON, FormatYAML}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return "yml"
	case FormatJSON:
		return "json"
	default:
		return string(f)
	}
}

// ParseFormat converts a CLI value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", &SerializationError{Format: Format(s), Reason: "unsupported format"}
	}
}

// DefaultBaseName is the file name, without extension, of generated manifests.
const DefaultBaseName = "kubernetes"
