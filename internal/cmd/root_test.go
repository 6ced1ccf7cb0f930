package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Execute(t *testing.T) {
	t.Run("root command shows help", func(t *testing.T) {
		_, err := executeCmd(t)
		assert.NoError(t, err)
	})

	t.Run("help flag", func(t *testing.T) {
		output, err := executeCmd(t, "--help")
		assert.NoError(t, err)
		assert.Contains(t, output, "keel")
		assert.Contains(t, output, "health capability")
	})

	t.Run("version flag", func(t *testing.T) {
		output, err := executeCmd(t, "--version")
		assert.NoError(t, err)
		assert.Contains(t, output, "keel version dev")
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := executeCmd(t, "launch")
		assert.Error(t, err)
	})
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"apply", "build", "doctor", "serve", "update", "verify"}

	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}

	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("no-color"))

	for _, name := range []string{"with", "values", "dry-run", "format", "image-ports", "output", "image-template"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "f", buildCmd.Flags().Lookup("values").Shorthand)
	assert.Equal(t, "n", buildCmd.Flags().Lookup("dry-run").Shorthand)
}
