package health

import (
	"encoding/json"
	"net/http"
)

// LiveHandler serves the liveness report.
func LiveHandler(r *Registry) http.Handler {
	return reportHandler(r, GroupLiveness)
}

// ReadyHandler serves the readiness report.
func ReadyHandler(r *Registry) http.Handler {
	return reportHandler(r, GroupReadiness)
}

// Handler serves liveness and readiness checks together.
func Handler(r *Registry) http.Handler {
	return reportHandler(r, GroupLiveness, GroupReadiness)
}

// Mount registers all health handlers on mux at the reserved paths.
func Mount(mux *http.ServeMux, r *Registry) {
	mux.Handle(RootPath, Handler(r))
	mux.Handle(LivePath, LiveHandler(r))
	mux.Handle(ReadyPath, ReadyHandler(r))
}

func reportHandler(reg *Registry, groups ...Group) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report := reg.Run(r.Context(), groups...)

		w.Header().Set("Content-Type", "application/json")
		if report.Status != StatusUp {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(report)
	})
}
