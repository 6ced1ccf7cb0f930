package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/keel/internal/build"
	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/docker"
	"github.com/cameronsjo/keel/internal/manifest"
	"github.com/cameronsjo/keel/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate Kubernetes manifests from keel.yml",
	Long: `Generate a Deployment and a Service from the project's keel.yml.

The manifests are written to target/kubernetes/kubernetes.json and
target/kubernetes/kubernetes.yml. Both files are written or neither is.

With the health capability installed, the container gets a readiness probe
on /health/ready and a liveness probe on /health/live.

Examples:
  keel build                       # Generate manifests
  keel build --with health         # Install the health capability
  keel build -f prod.yaml          # Apply a values overlay
  keel build -n --format json      # Print JSON without writing
  keel build --image-ports         # Use the ports the image exposes`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildWith       []string
	buildValues     string
	buildDryRun     bool
	buildFormat     string
	buildImagePorts bool
)

func init() {
	buildCmd.Flags().StringSliceVar(&buildWith, "with", nil, "Install an extra capability (repeatable)")
	buildCmd.Flags().StringVarP(&buildValues, "values", "f", "", "Values overlay file")
	buildCmd.Flags().BoolVarP(&buildDryRun, "dry-run", "n", false, "Print manifests without writing")
	buildCmd.Flags().StringVar(&buildFormat, "format", string(manifest.FormatYAML), "Format printed by --dry-run (yaml or json)")
	buildCmd.Flags().BoolVar(&buildImagePorts, "image-ports", false, "Declare the TCP ports the local image exposes")
	buildCmd.Flags().String("output", "", "Output directory (default <root>/target/kubernetes)")
	buildCmd.Flags().String("image-template", "", "Template for the container image")
	mustBindPFlag(config.KeyOutputDir, buildCmd.Flags().Lookup("output"))
	mustBindPFlag(config.KeyImageTemplate, buildCmd.Flags().Lookup("image-template"))

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	format, err := manifest.ParseFormat(buildFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	opts := build.Options{
		DescriptorPath: cfg.DescriptorPath,
		ValuesFile:     buildValues,
		With:           buildWith,
		OutputDir:      cfg.OutputDir,
		ImageTemplate:  cfg.ImageTemplate,
		DryRun:         buildDryRun,
	}

	ctx := commandContext(cmd.Context())

	var result *build.Result
	if buildImagePorts {
		err = withDockerClientContext(ctx, func(client *docker.Client) error {
			opts.Ports = client
			result, err = build.Run(ctx, opts)
			return err
		})
	} else {
		result, err = build.Run(ctx, opts)
	}
	if err != nil {
		return err
	}

	if buildDryRun {
		_, err := cmd.OutOrStdout().Write(result.Outputs[format])
		return err
	}

	d := result.Descriptor
	ui.Success("Generated %d resources for %s:%s", result.Bundle.Len(), d.Name, d.Version)
	ui.Info("Capabilities: %v", result.Capabilities.Strings())
	for _, p := range result.Probes {
		ui.Item("%s probe on %s", p.Kind, p.Path)
	}
	for _, path := range result.Paths {
		ui.File(path)
	}

	return nil
}
