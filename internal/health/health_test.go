package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/keel/internal/manifest"
)

func TestProbes(t *testing.T) {
	t.Run("health capability contributes readiness then liveness", func(t *testing.T) {
		probes := Probes(manifest.Capabilities{manifest.CapabilityKubernetes, manifest.CapabilityHealth})
		require.Len(t, probes, 2)

		assert.Equal(t, manifest.ProbeReadiness, probes[0].Kind)
		assert.Equal(t, "/health/ready", probes[0].Path)
		assert.Equal(t, manifest.ProbeLiveness, probes[1].Kind)
		assert.Equal(t, "/health/live", probes[1].Path)

		for _, p := range probes {
			assert.Zero(t, p.Port, "port is left to the generator")
			assert.Equal(t, int32(manifest.DefaultPeriodSeconds), p.PeriodSeconds)
		}
	})

	t.Run("no capability means no probes", func(t *testing.T) {
		probes := Probes(manifest.Capabilities{manifest.CapabilityKubernetes})
		assert.NotNil(t, probes)
		assert.Empty(t, probes)
	})

	t.Run("nil capabilities", func(t *testing.T) {
		assert.Empty(t, Probes(nil))
	})
}

func TestRegistry_Run(t *testing.T) {
	up := func(context.Context) CheckResponse { return CheckResponse{Status: StatusUp} }
	down := func(context.Context) CheckResponse {
		return CheckResponse{Status: StatusDown, Data: map[string]any{"reason": "db unreachable"}}
	}

	t.Run("empty registry is up", func(t *testing.T) {
		report := NewRegistry().Run(context.Background(), GroupLiveness, GroupReadiness)
		assert.Equal(t, StatusUp, report.Status)
		assert.Empty(t, report.Checks)
	})

	t.Run("one down check fails the group", func(t *testing.T) {
		r := NewRegistry()
		r.Register(GroupReadiness, "cache", up)
		r.Register(GroupReadiness, "database", down)

		report := r.Run(context.Background(), GroupReadiness)
		assert.Equal(t, StatusDown, report.Status)
		require.Len(t, report.Checks, 2)
		assert.Equal(t, "cache", report.Checks[0].Name)
		assert.Equal(t, "database", report.Checks[1].Name)
	})

	t.Run("groups are independent", func(t *testing.T) {
		r := NewRegistry()
		r.Register(GroupReadiness, "database", down)

		assert.Equal(t, StatusUp, r.Run(context.Background(), GroupLiveness).Status)
		assert.Equal(t, StatusDown, r.Run(context.Background(), GroupReadiness).Status)
	})

	t.Run("unknown status counts as down", func(t *testing.T) {
		r := NewRegistry()
		r.Register(GroupLiveness, "odd", func(context.Context) CheckResponse {
			return CheckResponse{Status: "MAYBE"}
		})

		report := r.Run(context.Background(), GroupLiveness)
		assert.Equal(t, StatusDown, report.Status)
		assert.Equal(t, StatusDown, report.Checks[0].Status)
	})

	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry()
		r.Register(GroupReadiness, "database", down)
		r.Unregister(GroupReadiness, "database")

		assert.Equal(t, StatusUp, r.Run(context.Background(), GroupReadiness).Status)
	})
}

func TestHandlers(t *testing.T) {
	r := NewRegistry()
	ready := true
	r.Register(GroupReadiness, "startup", func(context.Context) CheckResponse {
		if ready {
			return CheckResponse{Status: StatusUp}
		}
		return CheckResponse{Status: StatusDown}
	})

	mux := http.NewServeMux()
	Mount(mux, r)

	tests := []struct {
		name       string
		method     string
		path       string
		ready      bool
		wantStatus int
		wantBody   Status
	}{
		{"live", http.MethodGet, LivePath, true, http.StatusOK, StatusUp},
		{"ready", http.MethodGet, ReadyPath, true, http.StatusOK, StatusUp},
		{"root", http.MethodGet, RootPath, true, http.StatusOK, StatusUp},
		{"live ignores readiness checks", http.MethodGet, LivePath, false, http.StatusOK, StatusUp},
		{"not ready", http.MethodGet, ReadyPath, false, http.StatusServiceUnavailable, StatusDown},
		{"root not ready", http.MethodGet, RootPath, false, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready = tt.ready

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var report Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
			assert.Equal(t, tt.wantBody, report.Status)
		})
	}

	t.Run("post not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, LivePath, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
