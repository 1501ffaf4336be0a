// AngelaMos | 2026
// errors_test.go

package core_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/core"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "app error passes through",
			err:        fmt.Errorf("wrapped: %w", core.BadRequestError("bad")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "not found sentinel",
			err:        fmt.Errorf("get user: %w", core.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "duplicate sentinel",
			err:        fmt.Errorf("create user: %w", core.ErrDuplicateKey),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid input",
			err:        fmt.Errorf("invalid id %q: %w", "zzz", core.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "token mismatch",
			err:        core.ErrTokenMismatch,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token expired",
			err:        core.ErrTokenExpired,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := core.FromError(tt.err)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestFromErrorInvalidInputMessage(t *testing.T) {
	err := fmt.Errorf("get user: %w", fmt.Errorf("invalid id %q: %w", "zzz", core.ErrInvalidInput))

	appErr := core.FromError(err)
	assert.Equal(t, `get user: invalid id "zzz"`, appErr.Message)
}

func TestJSONErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	core.JSONError(rec, core.UnauthorizedError("Invalid user credentials"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env core.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	assert.Equal(t, "Invalid user credentials", env.Message)
	assert.Nil(t, env.Data)
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	core.OK(rec, map[string]string{"hello": "world"}, "done")

	var env core.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "done", env.Message)
	assert.Equal(t, map[string]any{"hello": "world"}, env.Data)
}
