package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/deploy"
	"github.com/cameronsjo/keel/internal/docker"
	"github.com/cameronsjo/keel/internal/manifest"
	"github.com/cameronsjo/keel/internal/preflight"
	"github.com/cameronsjo/keel/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that keel can run here",
	Long: `Run pre-flight checks.

Required: keel.yml is found and valid.
Optional: docker and kubectl are installed, the Docker daemon answers
(needed by build --image-ports) and a kubeconfig loads (needed by apply).`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := append([]preflight.Check{descriptorCheck()}, preflight.OptionalBinaries()...)
	checks = append(checks,
		preflight.Check{
			Name:        "docker daemon",
			InstallHint: "start Docker or set DOCKER_HOST",
			Run: func(ctx context.Context) error {
				return withDockerClientContext(ctx, func(*docker.Client) error { return nil })
			},
		},
		preflight.Check{
			Name:        "kubeconfig",
			InstallHint: "set KUBECONFIG or pass --kubeconfig to apply",
			Run: func(context.Context) error {
				_, _, err := deploy.NewClientset("")
				return err
			},
		},
	)

	ui.Header("Pre-flight checks")
	results := preflight.Run(commandContext(cmd.Context()), checks)
	for i, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed"
		}
		ui.Step(i+1, "%s: %s", r.Name, status)
	}

	warnings, errs := preflight.Summarize(results)
	for _, w := range warnings {
		ui.Warning("%s", w)
	}
	for _, e := range errs {
		ui.Error("%s", e)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d required check(s) failed", len(errs))
	}
	return nil
}

func descriptorCheck() preflight.Check {
	return preflight.Check{
		Name:        manifest.DescriptorFile,
		Required:    true,
		InstallHint: "run keel from a project containing " + manifest.DescriptorFile,
		Run: func(context.Context) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			_, err = manifest.LoadDescriptor(cfg.DescriptorPath, nil)
			return err
		},
	}
}
