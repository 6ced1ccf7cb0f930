// Package health owns the reserved health endpoint paths. The generator asks
// it which probes to declare, and the runtime server mounts its handlers on
// the same paths, so the two cannot drift apart.
package health

import "github.com/cameronsjo/keel/internal/manifest"

// Reserved health paths.
const (
	RootPath  = "/health"
	LivePath  = RootPath + "/live"
	ReadyPath = RootPath + "/ready"
)

// Probes returns the probes contributed by the health capability: readiness
// at ReadyPath and liveness at LivePath, in that order. Without the
// capability it returns an empty slice.
func Probes(caps manifest.Capabilities) []manifest.ProbeSpec {
	if !caps.Has(manifest.CapabilityHealth) {
		return []manifest.ProbeSpec{}
	}

	return []manifest.ProbeSpec{
		manifest.NewProbeSpec(manifest.ProbeReadiness, ReadyPath),
		manifest.NewProbeSpec(manifest.ProbeLiveness, LivePath),
	}
}
