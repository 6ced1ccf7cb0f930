package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetRootCmd restores every flag to its default so values set by one
// execution do not leak into the next.
func resetRootCmd(t *testing.T) {
	t.Helper()
	reset := func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				require.NoError(t, sv.Replace(nil))
			} else {
				require.NoError(t, f.Value.Set(f.DefValue))
			}
			f.Changed = false
		})
		c.SetContext(context.TODO())
	}

	reset(rootCmd)
	for _, c := range rootCmd.Commands() {
		reset(c)
	}
}

// executeCmd executes the root command with the given args and returns the output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetRootCmd(t)
	t.Cleanup(func() { resetRootCmd(t) })

	buf := new(bytes.Buffer)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

// newProject creates a project with keel.yml in a temp dir and changes into it.
func newProject(t *testing.T, descriptor string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keel.yml"), []byte(descriptor), 0644))
	t.Chdir(root)
	return root
}
