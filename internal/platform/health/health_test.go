package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler() *Handler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServeHTTP(t *testing.T) {
	t.Run("all checks passing", func(t *testing.T) {
		h := newHandler()
		h.AddCheck("postgres", func(context.Context) error { return nil })
		h.AddCheck("redis", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "ok", got.Status)
		assert.Equal(t, "ok", got.Checks["postgres"])
		assert.Equal(t, "ok", got.Checks["redis"])
	})

	t.Run("failing dependency degrades the probe", func(t *testing.T) {
		h := newHandler()
		h.AddCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "degraded")
	})

	t.Run("nil checks are ignored", func(t *testing.T) {
		h := newHandler()
		h.AddCheck("redis", nil)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
