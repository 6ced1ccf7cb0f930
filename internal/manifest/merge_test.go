package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]any
		overlay map[string]any
		want    map[string]any
	}{
		{
			name:    "overlay scalar wins",
			base:    map[string]any{"name": "health", "version": "0.1"},
			overlay: map[string]any{"version": "0.2"},
			want:    map[string]any{"name": "health", "version": "0.2"},
		},
		{
			name: "nested maps merge recursively",
			base: map[string]any{
				"labels": map[string]any{"team": "core", "tier": "backend"},
			},
			overlay: map[string]any{
				"labels": map[string]any{"tier": "edge", "region": "eu"},
			},
			want: map[string]any{
				"labels": map[string]any{"team": "core", "tier": "edge", "region": "eu"},
			},
		},
		{
			name:    "capabilities are unioned",
			base:    map[string]any{"capabilities": []any{"kubernetes", "health"}},
			overlay: map[string]any{"capabilities": []any{"health", "metrics"}},
			want:    map[string]any{"capabilities": []any{"kubernetes", "health", "metrics"}},
		},
		{
			name: "nested capabilities lists are replaced",
			base: map[string]any{
				"labels": map[string]any{"capabilities": []any{"a", "b"}},
			},
			overlay: map[string]any{
				"labels": map[string]any{"capabilities": []any{"c"}},
			},
			want: map[string]any{
				"labels": map[string]any{"capabilities": []any{"c"}},
			},
		},
		{
			name:    "other lists are replaced",
			base:    map[string]any{"args": []any{"--a", "--b"}},
			overlay: map[string]any{"args": []any{"--c"}},
			want:    map[string]any{"args": []any{"--c"}},
		},
		{
			name:    "type change replaces",
			base:    map[string]any{"env": map[string]any{"A": "1"}},
			overlay: map[string]any{"env": "none"},
			want:    map[string]any{"env": "none"},
		},
		{
			name:    "empty overlay copies base",
			base:    map[string]any{"name": "health"},
			overlay: nil,
			want:    map[string]any{"name": "health"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeepMerge(tt.base, tt.overlay))
		})
	}
}

func TestDeepMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{
		"labels":       map[string]any{"team": "core"},
		"capabilities": []any{"health"},
	}
	overlay := map[string]any{
		"labels":       map[string]any{"tier": "edge"},
		"capabilities": []any{"kubernetes"},
	}

	result := DeepMerge(base, overlay)
	result["labels"].(map[string]any)["team"] = "changed"

	assert.Equal(t, map[string]any{"team": "core"}, base["labels"])
	assert.Equal(t, []any{"health"}, base["capabilities"])
	assert.Equal(t, map[string]any{"tier": "edge"}, overlay["labels"])
}
