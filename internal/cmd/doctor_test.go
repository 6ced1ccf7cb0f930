package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorCheck(t *testing.T) {
	t.Run("valid project", func(t *testing.T) {
		newProject(t, healthDescriptor)
		resetRootCmd(t)

		assert.NoError(t, descriptorCheck().Run(context.Background()))
	})

	t.Run("invalid descriptor", func(t *testing.T) {
		newProject(t, "name: Not_A_Label\nversion: \"1\"\n")
		resetRootCmd(t)

		assert.Error(t, descriptorCheck().Run(context.Background()))
	})

	t.Run("no project", func(t *testing.T) {
		t.Chdir(t.TempDir())
		resetRootCmd(t)

		c := descriptorCheck()
		assert.True(t, c.Required)
		assert.Error(t, c.Run(context.Background()))
	})
}

func TestDoctorCmd(t *testing.T) {
	t.Run("optional checks only warn", func(t *testing.T) {
		newProject(t, healthDescriptor)

		_, err := executeCmd(t, "doctor")
		assert.NoError(t, err)
	})

	t.Run("missing descriptor fails", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := executeCmd(t, "doctor")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "1 required check(s) failed")
	})
}
