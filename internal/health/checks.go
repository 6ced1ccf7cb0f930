package health

import (
	"context"
	"sort"
	"sync"
)

// Status is the outcome of a health check.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Group selects which endpoint a check reports under.
type Group int

const (
	GroupLiveness Group = iota
	GroupReadiness
)

// CheckResponse is the result of one named check.
type CheckResponse struct {
	Name   string         `json:"name"`
	Status Status         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
}

// Check reports the health of one component.
type Check func(ctx context.Context) CheckResponse

// Report is the aggregated body served by the health endpoints.
type Report struct {
	Status Status          `json:"status"`
	Checks []CheckResponse `json:"checks"`
}

// Registry holds named liveness and readiness checks.
type Registry struct {
	mu     sync.RWMutex
	checks map[Group]map[string]Check
}

// NewRegistry creates an empty registry. With no checks every group reports UP.
func NewRegistry() *Registry {
	return &Registry{
		checks: map[Group]map[string]Check{
			GroupLiveness:  {},
			GroupReadiness: {},
		},
	}
}

// Register adds or replaces a check in a group.
func (r *Registry) Register(g Group, name string, c Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.checks[g] == nil {
		r.checks[g] = make(map[string]Check)
	}
	r.checks[g][name] = c
}

// Unregister removes a check from a group.
func (r *Registry) Unregister(g Group, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checks[g], name)
}

// Run executes the checks of the given groups. The report is DOWN if any check is DOWN.
func (r *Registry) Run(ctx context.Context, groups ...Group) Report {
	r.mu.RLock()
	var names []string
	selected := make(map[string]Check)
	for _, g := range groups {
		for name, c := range r.checks[g] {
			if _, dup := selected[name]; dup {
				continue
			}
			selected[name] = c
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)

	report := Report{Status: StatusUp, Checks: make([]CheckResponse, 0, len(names))}
	for _, name := range names {
		resp := selected[name](ctx)
		if resp.Name == "" {
			resp.Name = name
		}
		if resp.Status != StatusUp {
			resp.Status = StatusDown
			report.Status = StatusDown
		}
		report.Checks = append(report.Checks, resp)
	}

	return report
}
