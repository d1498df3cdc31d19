// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, h *Handler, path string) (int, map[string]any) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthOK(t *testing.T) {
	h := NewHandler("1.0.0",
		Dependency{Name: "database", Checker: pinger{}},
		Dependency{Name: "redis", Checker: pinger{}},
	)

	code, body := serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Len(t, body["checks"], 2)
}

func TestHealthDegraded(t *testing.T) {
	h := NewHandler("1.0.0",
		Dependency{Name: "database", Checker: pinger{}},
		Dependency{Name: "redis", Checker: pinger{err: errors.New("down")}},
	)

	code, body := serve(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])

	checks := body["checks"].([]any)
	redis := checks[1].(map[string]any)
	assert.Equal(t, "redis", redis["name"])
	assert.Equal(t, false, redis["healthy"])
	assert.Equal(t, "ping failed", redis["message"])
}

func TestHealthMissingChecker(t *testing.T) {
	code, _ := serve(t, NewHandler("", Dependency{Name: "database"}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestShutdownFlipsProbes(t *testing.T) {
	h := NewHandler("", Dependency{Name: "database", Checker: pinger{}})

	code, _ := serve(t, h, "/livez")
	assert.Equal(t, http.StatusOK, code)

	h.SetShutdown(true)

	code, body := serve(t, h, "/livez")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", body["status"])

	code, _ = serve(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
