// Package preflight runs the checks behind keel doctor.
package preflight

import (
	"context"
	"fmt"
	"os/exec"
)

// Check is one pre-flight check.
type Check struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string // e.g., "Install Docker: https://..."
	Run         func(ctx context.Context) error
}

// Result is the outcome of a check. Err is nil when it passed.
type Result struct {
	Check
	Err error
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Binary checks that name is on PATH.
func Binary(name string, required bool, hint string) Check {
	return Check{
		Name:        name,
		Required:    required,
		InstallHint: hint,
		Run: func(context.Context) error {
			if _, err := lookPath(name); err != nil {
				return fmt.Errorf("%s not found in PATH", name)
			}
			return nil
		},
	}
}

// OptionalBinaries enhance keel but are not needed to generate manifests.
func OptionalBinaries() []Check {
	return []Check{
		Binary("docker", false, "Install Docker: https://docs.docker.com/get-docker/"),
		Binary("kubectl", false, "Install kubectl: https://kubernetes.io/docs/tasks/tools/"),
	}
}

// Run executes checks in order and returns every result.
func Run(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, Result{Check: c, Err: c.Run(ctx)})
	}
	return results
}

// Summarize splits failed results into warnings (optional checks) and errors
// (required checks). Each entry reads "name: reason (hint)".
func Summarize(results []Result) (warnings []string, errors []string) {
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		msg := r.Name + ": " + r.Err.Error()
		if r.InstallHint != "" {
			msg += " (" + r.InstallHint + ")"
		}
		if r.Required {
			errors = append(errors, msg)
		} else {
			warnings = append(warnings, msg)
		}
	}
	return warnings, errors
}
