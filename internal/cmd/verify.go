package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/keel/internal/build"
	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/manifest"
	"github.com/cameronsjo/keel/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check generated manifests",
	Long: `Check the manifests written by keel build.

Both kubernetes.json and kubernetes.yml must decode and describe the same
resources, with the Deployment first. When the health capability is
installed, the container must probe /health/live and /health/ready.

Examples:
  keel verify                     # Verify target/kubernetes
  keel verify --with health       # Require health probes
  keel verify --dir out/k8s       # Verify another directory`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var (
	verifyDir  string
	verifyWith []string
)

func init() {
	verifyCmd.Flags().StringVar(&verifyDir, "dir", "", "Manifest directory (default <root>/target/kubernetes)")
	verifyCmd.Flags().StringSliceVar(&verifyWith, "with", nil, "Capability expected in addition to keel.yml's")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	d, err := manifest.LoadDescriptor(cfg.DescriptorPath, nil)
	if err != nil {
		return err
	}

	caps, err := build.Capabilities(d, verifyWith)
	if err != nil {
		return err
	}

	dir := verifyDir
	if dir == "" {
		dir = cfg.OutputDir
	}

	report, err := build.Verify(dir, caps)
	if err != nil {
		return err
	}

	ui.Success("%d resources verified", report.Resources)
	for _, f := range report.Files {
		ui.File(f)
	}
	for _, kind := range []manifest.ProbeKind{manifest.ProbeReadiness, manifest.ProbeLiveness} {
		if path, ok := report.Probes[kind]; ok {
			ui.Item("%s probe on %s", kind, path)
		}
	}

	return nil
}
