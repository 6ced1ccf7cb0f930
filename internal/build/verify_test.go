package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/keel/internal/manifest"
)

var withHealth = manifest.Capabilities{manifest.CapabilityKubernetes, manifest.CapabilityHealth}

func buildInto(t *testing.T, with ...string) string {
	t.Helper()
	descriptor, outDir := writeDescriptor(t, "name: health\nversion: 0.1-SNAPSHOT\n")
	_, err := Run(context.Background(), Options{DescriptorPath: descriptor, OutputDir: outDir, With: with})
	require.NoError(t, err)
	return outDir
}

func TestVerify(t *testing.T) {
	t.Run("health build verifies", func(t *testing.T) {
		dir := buildInto(t, "health")

		report, err := Verify(dir, withHealth)
		require.NoError(t, err)
		assert.Len(t, report.Files, 2)
		assert.Equal(t, 2, report.Resources)
		assert.Equal(t, "/health/live", report.Probes[manifest.ProbeLiveness])
		assert.Equal(t, "/health/ready", report.Probes[manifest.ProbeReadiness])
	})

	t.Run("missing probes fail when health is expected", func(t *testing.T) {
		dir := buildInto(t)

		_, err := Verify(dir, withHealth)
		require.ErrorIs(t, err, ErrVerification)
		assert.Contains(t, err.Error(), "LIVENESS")

		_, err = Verify(dir, manifest.Capabilities{manifest.CapabilityKubernetes})
		assert.NoError(t, err)
	})

	t.Run("formats that differ fail", func(t *testing.T) {
		dir := buildInto(t, "health")
		yml := filepath.Join(dir, "kubernetes.yml")
		data, err := os.ReadFile(yml)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(yml, []byte(string(data)+"---\napiVersion: v1\nkind: Service\nmetadata:\n  name: extra\n"), 0644))

		_, err = Verify(dir, withHealth)
		require.ErrorIs(t, err, ErrVerification)
		assert.Contains(t, err.Error(), "differ")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Verify(t.TempDir(), withHealth)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kubernetes.json")
	})
}
