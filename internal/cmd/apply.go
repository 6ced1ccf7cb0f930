package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/deploy"
	"github.com/cameronsjo/keel/internal/manifest"
	"github.com/cameronsjo/keel/internal/ui"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create or update the generated manifests on a cluster",
	Long: `Create or update the Deployment and Service written by keel build.

Resources that do not exist are created; existing ones are updated in
place. The kubeconfig is taken from --kubeconfig, the in-cluster
environment or the default loading rules, in that order.

Examples:
  keel apply                          # Apply target/kubernetes/kubernetes.yml
  keel apply --namespace staging      # Apply into another namespace
  keel apply --file out/k8s/app.json  # Apply another manifest file`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

var (
	applyKubeconfig string
	applyNamespace  string
	applyFile       string
)

func init() {
	applyCmd.Flags().StringVar(&applyKubeconfig, "kubeconfig", "", "Path to the kubeconfig file")
	applyCmd.Flags().StringVar(&applyNamespace, "namespace", "", "Namespace (default from kubeconfig)")
	applyCmd.Flags().StringVar(&applyFile, "file", "", "Manifest file (default <root>/target/kubernetes/kubernetes.yml)")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	path := applyFile
	if path == "" {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		path = cfg.ManifestPath(manifest.FormatYAML)
	}

	client, namespace, err := deploy.NewClientset(applyKubeconfig)
	if err != nil {
		return err
	}
	if applyNamespace != "" {
		namespace = applyNamespace
	}

	applied, err := deploy.NewApplier(client, namespace).ApplyFile(commandContext(cmd.Context()), path)
	if err != nil {
		return err
	}

	ui.Success("Applied %s to namespace %s", path, namespace)
	for _, a := range applied {
		ui.Item("%s/%s %s", a.Kind, a.Name, a.Action)
	}

	return nil
}
