// Package health serves the dependency health endpoint.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks  map[string]Checker
	logger  *slog.Logger
	timeout time.Duration
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger, timeout: 3 * time.Second}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]result `json:"checks"`
}

// check runs every checker concurrently under one deadline.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		resp = response{Status: "ok", Checks: make(map[string]result, len(h.checks))}
	)
	for name, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			res := result{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status, res.Error = "error", err.Error()
			}

			mu.Lock()
			resp.Checks[name] = res
			if err != nil {
				resp.Status = "degraded"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
