package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/keel/internal/manifest"
)

// completeCapabilities completes capability names for --with.
func completeCapabilities(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, c := range manifest.KnownCapabilities {
		if strings.HasPrefix(string(c), toComplete) {
			names = append(names, string(c))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes manifest formats for --format.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, f := range manifest.Formats {
		if strings.HasPrefix(string(f), toComplete) {
			names = append(names, string(f))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// registerCompletions registers all dynamic flag completions.
func registerCompletions() {
	for _, c := range []*cobra.Command{buildCmd, verifyCmd, serveCmd} {
		// Completions are optional; a registration error only loses hints.
		_ = c.RegisterFlagCompletionFunc("with", completeCapabilities)
	}
	_ = buildCmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = buildCmd.MarkFlagFilename("values", "yaml", "yml")
	_ = applyCmd.MarkFlagFilename("file", "yaml", "yml", "json")
	_ = applyCmd.MarkFlagFilename("kubeconfig")
}

func init() {
	cobra.OnInitialize(registerCompletions)
}
