// AngelaMos | 2026
// cookies.go

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/middleware"
)

const RefreshTokenCookie = "refreshToken"

// CookieManager writes the two session cookies. Both are http-only.
type CookieManager struct {
	secure   bool
	sameSite http.SameSite
	domain   string
	path     string
}

func NewCookieManager(cfg config.CookieConfig) *CookieManager {
	path := cfg.Path
	if path == "" {
		path = "/"
	}

	return &CookieManager{
		secure:   cfg.Secure,
		sameSite: parseSameSite(cfg.SameSite),
		domain:   cfg.Domain,
		path:     path,
	}
}

func (c *CookieManager) SetSession(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessTokenCookie, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (c *CookieManager) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := c.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (c *CookieManager) cookie(name, value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.path,
		Domain:   c.domain,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	}
	if value != "" {
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}
	return cookie
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
