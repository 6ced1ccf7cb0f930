package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	vars := MapLookup(map[string]string{
		"REGISTRY": "ghcr.io",
		"TAG":      "0.1-SNAPSHOT",
		"EMPTY":    "",
	})

	tests := []struct {
		name    string
		content string
		want    string
		wantErr string
	}{
		{
			name:    "single variable",
			content: "version: ${TAG}",
			want:    "version: 0.1-SNAPSHOT",
		},
		{
			name:    "multiple variables",
			content: "image: ${REGISTRY}/health:${TAG}",
			want:    "image: ghcr.io/health:0.1-SNAPSHOT",
		},
		{
			name:    "fallback when unset",
			content: "group: ${GROUP:-acme}",
			want:    "group: acme",
		},
		{
			name:    "set value wins over fallback",
			content: "version: ${TAG:-latest}",
			want:    "version: 0.1-SNAPSHOT",
		},
		{
			name:    "set but empty is kept",
			content: "group: ${EMPTY:-acme}",
			want:    "group: ",
		},
		{
			name:    "empty fallback",
			content: "group: ${GROUP:-}",
			want:    "group: ",
		},
		{
			name:    "escaped placeholder is literal",
			content: "env:\n  PATTERN: $${TAG}",
			want:    "env:\n  PATTERN: ${TAG}",
		},
		{
			name:    "no placeholders",
			content: "name: health",
			want:    "name: health",
		},
		{
			name:    "missing variables are all reported",
			content: "${NOPE} ${ALSO_NOPE}",
			wantErr: "missing variables: ${NOPE}, ${ALSO_NOPE}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(tt.content, vars)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
