// Package health exposes the readiness endpoint. Checks run in parallel with
// a shared deadline so one slow dependency cannot stall the whole probe.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"porchlight/internal/transport/http/shared"
)

const checkTimeout = 5 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Handler runs named dependency checks.
type Handler struct {
	logger *slog.Logger
	checks map[string]Check
}

func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger, checks: make(map[string]Check)}
}

// AddCheck registers a named dependency probe. Nil checks are ignored so
// callers can pass optional dependencies straight through.
func (h *Handler) AddCheck(name string, check Check) {
	if check != nil {
		h.checks[name] = check
	}
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServeHTTP answers 200 when every dependency check passes, 503 otherwise.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]string, len(h.checks))

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		g.Go(func() error {
			err := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = err.Error()
				return err
			}
			results[name] = "ok"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", "error", err.Error())
		shared.WriteJSON(w, http.StatusServiceUnavailable, response{Status: "degraded", Checks: results})
		return
	}
	shared.WriteJSON(w, http.StatusOK, response{Status: "ok", Checks: results})
}
