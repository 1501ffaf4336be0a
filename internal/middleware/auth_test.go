// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/core"
)

type stubVerifier struct {
	tokens map[string]*AccessTokenClaims
	errs   map[string]error
}

func (s *stubVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, fmt.Errorf("parse: %w", core.ErrTokenInvalid)
}

type stubRevocations map[string]bool

func (s stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s[tokenID], nil
}

type stubResolver map[string]*Identity

func (s stubResolver) ResolveIdentity(_ context.Context, userID string) (*Identity, error) {
	if identity, ok := s[userID]; ok {
		return identity, nil
	}
	return nil, fmt.Errorf("resolve %s: %w", userID, core.ErrNotFound)
}

func TestAuthenticator(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	verifier := &stubVerifier{
		tokens: map[string]*AccessTokenClaims{
			"good":    {UserID: "u1", TokenID: "jti-1", ExpiresAt: exp},
			"other":   {UserID: "u2", TokenID: "jti-2", ExpiresAt: exp},
			"revoked": {UserID: "u1", TokenID: "jti-revoked", ExpiresAt: exp},
			"ghost":   {UserID: "deleted", TokenID: "jti-3", ExpiresAt: exp},
		},
		errs: map[string]error{
			"expired": fmt.Errorf("verify: %w", core.ErrTokenExpired),
		},
	}
	revocations := stubRevocations{"jti-revoked": true}
	resolver := stubResolver{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	}

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		wantCode   string
		wantUser   string
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "bearer header", header: "Bearer good", wantStatus: http.StatusOK, wantUser: "alice"},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK, wantUser: "alice"},
		{name: "cookie", cookie: "good", wantStatus: http.StatusOK, wantUser: "alice"},
		{name: "cookie wins over header", cookie: "other", header: "Bearer good", wantStatus: http.StatusOK, wantUser: "bob"},
		{name: "basic scheme ignored", header: "Basic good", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "invalid token", header: "Bearer junk", wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_INVALID"},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_EXPIRED"},
		{name: "revoked token", header: "Bearer revoked", wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_REVOKED"},
		{name: "account gone", header: "Bearer ghost", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				identity := GetIdentity(r.Context())
				require.NotNil(t, identity)
				require.NotNil(t, GetClaims(r.Context()))
				assert.Equal(t, identity.ID, GetUserID(r.Context()))
				gotUser = identity.Username
				w.WriteHeader(http.StatusOK)
			})

			handler := Authenticator(verifier, revocations, resolver)(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, gotUser)
			}
			if tt.wantCode != "" {
				var env core.Envelope
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantStatus, env.StatusCode)
				assert.Equal(t, []string{tt.wantCode}, env.Errors)
			}
		})
	}
}

func TestAuthenticatorWithoutRevocations(t *testing.T) {
	verifier := &stubVerifier{tokens: map[string]*AccessTokenClaims{
		"good": {UserID: "u1", TokenID: "jti-1"},
	}}
	handler := Authenticator(verifier, nil, stubResolver{"u1": {ID: "u1"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticatorResolverFailure(t *testing.T) {
	verifier := &stubVerifier{tokens: map[string]*AccessTokenClaims{
		"good": {UserID: "u1"},
	}}
	handler := Authenticator(verifier, nil, resolverFunc(func(context.Context, string) (*Identity, error) {
		return nil, errors.New("database down")
	}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type resolverFunc func(context.Context, string) (*Identity, error)

func (f resolverFunc) ResolveIdentity(ctx context.Context, userID string) (*Identity, error) {
	return f(ctx, userID)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "empty", want: ""},
		{name: "empty cookie falls back to header", cookie: "", header: "Bearer abc", want: "abc"},
		{name: "cookie", cookie: "xyz", header: "Bearer abc", want: "xyz"},
		{name: "missing token after scheme", header: "Bearer", want: ""},
		{name: "padded token", header: "Bearer   abc  ", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(req))
		})
	}
}
