package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ReadyzCheck is one named dependency probe, e.g. postgres or sqs.
type ReadyzCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

func Check(name string, probe func(ctx context.Context) error) ReadyzCheck {
	return ReadyzCheck{Name: name, Probe: probe}
}

func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

// Readyz probes every dependency in parallel within timeout and reports each
// one by name. Any failure makes the pod unready.
func Readyz(timeout time.Duration, checks ...ReadyzCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var mu sync.Mutex
		var wg sync.WaitGroup
		report := make(map[string]string, len(checks))
		ready := true
		for _, c := range checks {
			c := c
			wg.Add(1)
			go func() {
				defer wg.Done()
				state := "ok"
				if err := c.Probe(ctx); err != nil {
					slog.Warn("readiness check failed", "check", c.Name, "err", err)
					state = err.Error()
				}
				mu.Lock()
				defer mu.Unlock()
				report[c.Name] = state
				if state != "ok" {
					ready = false
				}
			}()
		}
		wg.Wait()

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}
