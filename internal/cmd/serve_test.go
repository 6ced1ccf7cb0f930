package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/keel/internal/manifest"
)

func TestServerConfig(t *testing.T) {
	t.Run("outside a project", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetRootCmd(t)

		cfg, err := serverConfig(false)
		require.NoError(t, err)
		assert.Equal(t, manifest.DefaultHTTPPort, cfg.Port)
		assert.Equal(t, manifest.Capabilities{manifest.CapabilityKubernetes}, cfg.Capabilities)
	})

	t.Run("descriptor port and capabilities", func(t *testing.T) {
		newProject(t, "name: health\nversion: \"1\"\nhttpPort: 9000\ncapabilities: [health]\n")
		resetRootCmd(t)

		cfg, err := serverConfig(false)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Port)
		assert.True(t, cfg.Capabilities.Has(manifest.CapabilityHealth))
	})

	t.Run("environment overrides descriptor port", func(t *testing.T) {
		newProject(t, "name: health\nversion: \"1\"\nhttpPort: 9000\n")
		resetRootCmd(t)
		t.Setenv("KEEL_HTTP_PORT", "9191")

		cfg, err := serverConfig(portOverridden(serveCmd))
		require.NoError(t, err)
		assert.Equal(t, 9191, cfg.Port)
	})

	t.Run("unknown capability", func(t *testing.T) {
		newProject(t, "name: health\nversion: \"1\"\ncapabilities: [tracing]\n")
		resetRootCmd(t)

		_, err := serverConfig(false)
		assert.Error(t, err)
	})
}

func TestCompleteCapabilities(t *testing.T) {
	names, _ := completeCapabilities(buildCmd, nil, "he")
	assert.Equal(t, []string{"health"}, names)

	names, _ = completeFormats(buildCmd, nil, "")
	assert.Equal(t, []string{"json", "yaml"}, names)
}
