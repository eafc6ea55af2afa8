package server

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"submission-intake/internal/endpoints/shared"
)

// CheckFunc checks one dependency.
type CheckFunc func(ctx context.Context) error

const healthTimeout = 3 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently. Any failure turns the
// response into a 503 so a load balancer takes the instance out.
func healthHandler(checks map[string]CheckFunc) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		results := make(map[string]string, len(names))
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(name string, check CheckFunc) {
				defer wg.Done()
				status := "ok"
				if err := check(ctx); err != nil {
					status = err.Error()
				}
				mu.Lock()
				results[name] = status
				mu.Unlock()
			}(name, checks[name])
		}
		wg.Wait()

		resp := healthResponse{Status: "healthy", Time: time.Now().UTC().Format(time.RFC3339), Checks: results}
		code := http.StatusOK
		for _, status := range results {
			if status != "ok" {
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}
		shared.WriteJSON(w, code, resp)
	}
}
