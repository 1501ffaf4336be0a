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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Checker { return pingFunc(func(context.Context) error { return nil }) }

func failing() Checker {
	return pingFunc(func(context.Context) error { return errors.New("connection refused") })
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     []Check
		ready      bool
		shutdown   bool
		wantStatus int
		wantBody   string
	}{
		{name: "all healthy", checks: []Check{{Name: "database", Checker: healthy()}, {Name: "redis", Checker: healthy()}}, ready: true, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "one failing", checks: []Check{{Name: "database", Checker: healthy()}, {Name: "redis", Checker: failing()}}, ready: true, wantStatus: http.StatusServiceUnavailable, wantBody: "degraded"},
		{name: "missing checker", checks: []Check{{Name: "redis"}}, ready: true, wantStatus: http.StatusServiceUnavailable, wantBody: "degraded"},
		{name: "not ready", ready: false, wantStatus: http.StatusServiceUnavailable, wantBody: "not_ready"},
		{name: "shutting down", ready: true, shutdown: true, wantStatus: http.StatusServiceUnavailable, wantBody: "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.checks...)
			h.SetReady(tt.ready)
			h.SetShutdown(tt.shutdown)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ReadinessResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body.Status)
			if tt.wantBody == "ok" || tt.wantBody == "degraded" {
				assert.Len(t, body.Checks, len(tt.checks))
				assert.Equal(t, tt.checks[0].Name, body.Checks[0].Name)
			}
		})
	}
}

func TestLiveness(t *testing.T) {
	h := NewHandler()

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetShutdown(true)
	rec = httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
