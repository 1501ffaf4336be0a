// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/go-backend/internal/core"
)

const (
	UserIDKey   contextKey = "user_id"
	IdentityKey contextKey = "identity"
	ClaimsKey   contextKey = "jwt_claims"

	AccessTokenCookie = "accessToken"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// RevocationChecker reports access tokens that were signed out before
// their natural expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IdentityResolver loads the account behind a verified token. It must never
// expose the password hash or the refresh token.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*Identity, error)
}

type AccessTokenClaims struct {
	UserID    string
	Email     string
	Username  string
	FullName  string
	TokenID   string
	ExpiresAt time.Time
}

// Identity is the authenticated account attached to the request context.
type Identity struct {
	ID       string
	Username string
	Email    string
	FullName string
	Avatar   string
}

// Authenticator fails closed: a request passes only with a valid, unrevoked
// access token that still maps to an existing account. The cookie takes
// precedence over the Authorization header. The revocation checker is
// optional.
func Authenticator(
	verifier TokenVerifier,
	revocations RevocationChecker,
	resolver IdentityResolver,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(w, core.UnauthorizedError("Unauthorized request"))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			if revocations != nil && claims.TokenID != "" {
				revoked, revErr := revocations.IsRevoked(r.Context(), claims.TokenID)
				if revErr != nil {
					slog.WarnContext(r.Context(), "revocation check failed",
						"error", revErr,
						"user_id", claims.UserID,
					)
				}
				if revoked {
					core.JSONError(w, core.TokenRevokedError())
					return
				}
			}

			identity, err := resolver.ResolveIdentity(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.UnauthorizedError("Invalid Access Token"))
					return
				}
				core.JSONError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, identity.ID)
			ctx = context.WithValue(ctx, IdentityKey, identity)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// WithIdentity attaches an identity the way Authenticator does. Handlers
// under test use it to skip token plumbing.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, identity.ID)
	return context.WithValue(ctx, IdentityKey, identity)
}
