package main

import (
	"context"
	"encoding/json"
	"net/http"
)

// healthHandler reports readiness of every backing dependency.
func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": http.StatusText(status),
		})
	}
}
