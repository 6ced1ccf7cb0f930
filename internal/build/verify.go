package build

import (
	"errors"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/cameronsjo/keel/internal/health"
	"github.com/cameronsjo/keel/internal/manifest"
)

// ErrVerification marks a manifest set that decodes but is wrong.
var ErrVerification = errors.New("verification failed")

// VerifyReport summarizes a verified output directory.
type VerifyReport struct {
	Files     []string
	Resources int
	Probes    map[manifest.ProbeKind]string
}

// Verify checks the manifests in dir: every format decodes, the formats are
// equivalent, the Deployment comes first and, when caps include health, its
// container probes the reserved health paths.
func Verify(dir string, caps manifest.Capabilities) (*VerifyReport, error) {
	report := &VerifyReport{Probes: make(map[manifest.ProbeKind]string)}

	decoded := make(map[manifest.Format][]*unstructured.Unstructured, len(manifest.Formats))
	for _, f := range manifest.Formats {
		path := manifest.OutputPath(dir, manifest.DefaultBaseName, f)
		items, err := manifest.DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		decoded[f] = items
		report.Files = append(report.Files, path)
	}

	items := decoded[manifest.FormatJSON]
	if !manifest.Equivalent(items, decoded[manifest.FormatYAML]) {
		return nil, fmt.Errorf("%w: JSON and YAML outputs differ", ErrVerification)
	}
	report.Resources = len(items)

	objs, err := manifest.ToTyped(items)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no resources", ErrVerification)
	}

	deployment, ok := objs[0].(*appsv1.Deployment)
	if !ok {
		return nil, fmt.Errorf("%w: first resource is %T, want Deployment", ErrVerification, objs[0])
	}
	containers := deployment.Spec.Template.Spec.Containers
	if len(containers) != 1 {
		return nil, fmt.Errorf("%w: deployment has %d containers, want 1", ErrVerification, len(containers))
	}
	c := containers[0]

	for kind, probe := range map[manifest.ProbeKind]*corev1.Probe{
		manifest.ProbeLiveness:  c.LivenessProbe,
		manifest.ProbeReadiness: c.ReadinessProbe,
	} {
		if probe != nil && probe.HTTPGet != nil {
			report.Probes[kind] = probe.HTTPGet.Path
		}
	}

	if caps.Has(manifest.CapabilityHealth) {
		for _, want := range []manifest.ProbeSpec{
			{Kind: manifest.ProbeLiveness, Path: health.LivePath},
			{Kind: manifest.ProbeReadiness, Path: health.ReadyPath},
		} {
			if got := report.Probes[want.Kind]; got != want.Path {
				return nil, fmt.Errorf("%w: %s probe path is %q, want %q", ErrVerification, want.Kind, got, want.Path)
			}
		}
	}

	return report, nil
}
