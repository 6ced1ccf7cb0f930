package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/keel/internal/manifest"
)

const healthDescriptor = "name: health\nversion: 0.1-SNAPSHOT\n"

func TestBuildCmd(t *testing.T) {
	t.Run("writes both manifests with health probes", func(t *testing.T) {
		root := newProject(t, healthDescriptor)

		_, err := executeCmd(t, "build", "--with", "health")
		require.NoError(t, err)

		dir := filepath.Join(root, "target", "kubernetes")
		for _, f := range manifest.Formats {
			assert.FileExists(t, manifest.OutputPath(dir, manifest.DefaultBaseName, f))
		}

		items, err := manifest.DecodeFile(filepath.Join(dir, "kubernetes.json"))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Deployment", items[0].GetKind())
		assert.Equal(t, "Service", items[1].GetKind())

		_, err = executeCmd(t, "verify", "--with", "health")
		assert.NoError(t, err)
	})

	t.Run("unknown capability writes nothing", func(t *testing.T) {
		root := newProject(t, healthDescriptor)

		_, err := executeCmd(t, "build", "--with", "tracing")
		require.Error(t, err)

		var cfgErr *manifest.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
		assert.NoDirExists(t, filepath.Join(root, "target"))
	})

	t.Run("dry run prints json", func(t *testing.T) {
		root := newProject(t, healthDescriptor)

		output, err := executeCmd(t, "build", "-n", "--format", "json", "--with", "health")
		require.NoError(t, err)

		var list map[string]any
		require.NoError(t, json.Unmarshal([]byte(output), &list))
		assert.Equal(t, "List", list["kind"])
		assert.Len(t, list["items"], 2)
		assert.NoDirExists(t, filepath.Join(root, "target"))
	})

	t.Run("output flag", func(t *testing.T) {
		root := newProject(t, healthDescriptor)

		_, err := executeCmd(t, "build", "--output", "deploy")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "deploy", "kubernetes.yml"))
	})

	t.Run("output from environment", func(t *testing.T) {
		root := newProject(t, healthDescriptor)
		t.Setenv("KEEL_OUTPUT_DIR", "env-out")

		_, err := executeCmd(t, "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "env-out", "kubernetes.json"))
	})

	t.Run("values overlay", func(t *testing.T) {
		root := newProject(t, healthDescriptor)
		require.NoError(t, os.WriteFile(filepath.Join(root, "prod.yaml"), []byte("replicas: 3\n"), 0644))

		output, err := executeCmd(t, "build", "-n", "-f", "prod.yaml")
		require.NoError(t, err)
		assert.Contains(t, output, "replicas: 3")
	})

	t.Run("invalid format", func(t *testing.T) {
		newProject(t, healthDescriptor)

		_, err := executeCmd(t, "build", "-n", "--format", "xml")
		assert.Error(t, err)
	})

	t.Run("outside a project", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := executeCmd(t, "build")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "project root not found")
	})
}

func TestVerifyCmd(t *testing.T) {
	t.Run("nothing built", func(t *testing.T) {
		newProject(t, healthDescriptor)

		_, err := executeCmd(t, "verify")
		assert.Error(t, err)
	})

	t.Run("health expected but not built", func(t *testing.T) {
		newProject(t, healthDescriptor)

		_, err := executeCmd(t, "build")
		require.NoError(t, err)

		_, err = executeCmd(t, "verify")
		assert.NoError(t, err)

		_, err = executeCmd(t, "verify", "--with", "health")
		assert.Error(t, err)
	})
}
