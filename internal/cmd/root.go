// Package cmd provides the CLI commands for keel.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/ui"
	"github.com/cameronsjo/keel/internal/update"
)

// version is overridden at release time with -ldflags "-X".
var version = update.DevVersion

// v carries flag and KEEL_* environment overrides for every command.
var v = config.NewViper()

var noColor bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Kubernetes manifests with health probes wired in",
	Long: `keel - Kubernetes manifests for small services

Generates a Deployment and a Service from keel.yml and wires liveness and
readiness probes when the health capability is installed.

BUILD COMMANDS
  build                  Generate target/kubernetes/kubernetes.{json,yml}
    --with <capability>  Install an extra capability (health)
    --values, -f <file>  Apply values overlay (e.g., prod.yaml)
    --dry-run, -n        Print the manifests without writing
  verify                 Check generated manifests decode and agree

RUNTIME COMMANDS
  serve                  Run the application's HTTP server
  apply                  Create or update the manifests on a cluster

DIAGNOSTICS
  doctor                 Pre-flight checks

MAINTENANCE
  update                 Update keel to the latest release`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.DetectColor(noColor)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Fatal("%v", err)
	}
}

// mustBindPFlag binds a flag to a viper key and panics on error.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.SetVersionTemplate("keel version {{.Version}}\n")
}
