// Package build runs the keel manifest pipeline: load the descriptor, resolve
// capabilities, collect health probes, generate, encode and write.
package build

import (
	"context"
	"fmt"
	"slices"

	"github.com/cameronsjo/keel/internal/docker"
	"github.com/cameronsjo/keel/internal/health"
	"github.com/cameronsjo/keel/internal/manifest"
)

// PortDiscoverer reports the ports an image exposes.
type PortDiscoverer interface {
	ExposedPorts(ctx context.Context, ref string) ([]docker.Port, error)
}

// Options configures a build.
type Options struct {
	// DescriptorPath is the keel.yml to load.
	DescriptorPath string

	// ValuesFile is an optional overlay deep-merged onto the descriptor.
	ValuesFile string

	// With adds capabilities on top of the descriptor's.
	With []string

	// OutputDir receives kubernetes.json and kubernetes.yml.
	OutputDir string

	// ImageTemplate renders the image when the descriptor has none.
	ImageTemplate string

	// Probes are declared in addition to those contributed by capabilities.
	Probes []manifest.ProbeSpec

	// Ports, when set, replaces the default container port with the TCP
	// ports the image exposes.
	Ports PortDiscoverer

	// DryRun encodes without writing.
	DryRun bool
}

// Result describes a finished build.
type Result struct {
	Descriptor   *manifest.Descriptor
	Capabilities manifest.Capabilities
	Probes       []manifest.ProbeSpec
	Bundle       *manifest.Bundle
	Outputs      map[manifest.Format][]byte

	// Paths lists the files written, empty on a dry run.
	Paths []string
}

// Run executes the build. A failure at any stage writes nothing.
func Run(ctx context.Context, opts Options) (*Result, error) {
	var overlay map[string]any
	if opts.ValuesFile != "" {
		values, err := manifest.LoadValuesOverlay(opts.ValuesFile)
		if err != nil {
			return nil, fmt.Errorf("load values: %w", err)
		}
		overlay = values
	}

	d, err := manifest.LoadDescriptor(opts.DescriptorPath, overlay)
	if err != nil {
		return nil, fmt.Errorf("load descriptor: %w", err)
	}

	caps, err := Capabilities(d, opts.With)
	if err != nil {
		return nil, err
	}

	probes := append(health.Probes(caps), opts.Probes...)

	seed, err := manifest.NewContainerSeed(d, opts.ImageTemplate)
	if err != nil {
		return nil, err
	}

	if opts.Ports != nil {
		ports, err := imagePorts(ctx, opts.Ports, seed.Image, d.Port())
		if err != nil {
			return nil, err
		}
		if len(ports) > 0 {
			seed.Ports = ports
		}
	}

	bundle, err := manifest.Generate(d, seed, probes)
	if err != nil {
		return nil, err
	}

	outputs, err := manifest.EncodeAll(bundle)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Descriptor:   d,
		Capabilities: caps,
		Probes:       probes,
		Bundle:       bundle,
		Outputs:      outputs,
	}

	if opts.DryRun {
		return result, nil
	}

	paths, err := manifest.WriteBundle(ctx, opts.OutputDir, manifest.DefaultBaseName, outputs)
	if err != nil {
		return nil, err
	}
	result.Paths = paths

	return result, nil
}

// Capabilities resolves the installed capabilities: kubernetes first, then
// the descriptor's, then those added with --with.
func Capabilities(d *manifest.Descriptor, with []string) (manifest.Capabilities, error) {
	caps := manifest.Capabilities{manifest.CapabilityKubernetes}

	names := make([]string, 0, len(d.Capabilities)+len(with))
	names = append(names, d.Capabilities.Strings()...)
	names = append(names, with...)

	for _, name := range names {
		c, err := manifest.ParseCapability(name)
		if err != nil {
			return nil, err
		}
		caps = caps.With(c)
	}

	return caps, nil
}

// imagePorts lists the image's TCP ports with the descriptor port first,
// adding it when the image does not expose it.
func imagePorts(ctx context.Context, pd PortDiscoverer, image string, primary int) ([]manifest.ContainerPort, error) {
	exposed, err := pd.ExposedPorts(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("discover image ports: %w", err)
	}

	numbers := docker.TCPPorts(exposed)
	if len(numbers) == 0 {
		return nil, nil
	}
	if i := slices.Index(numbers, primary); i >= 0 {
		numbers = slices.Delete(numbers, i, i+1)
	}
	numbers = append([]int{primary}, numbers...)

	ports := make([]manifest.ContainerPort, 0, len(numbers))
	for _, n := range numbers {
		ports = append(ports, manifest.ContainerPort{Port: n})
	}
	return ports, nil
}
