// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
	"github.com/vidtube/go-backend/internal/upload"
)

const (
	slotAvatar     = "avatar"
	slotCoverImage = "coverImage"
)

type Handler struct {
	service   *Service
	cookies   *CookieManager
	uploads   *upload.Parser
	validator *validator.Validate
}

func NewHandler(service *Service, cookies *CookieManager, uploads *upload.Parser) *Handler {
	return &Handler{
		service:   service,
		cookies:   cookies,
		uploads:   uploads,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the session endpoints on the users router. The
// credential endpoints sit behind the stricter limiter when one is given.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	credentialLimiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		if credentialLimiter != nil {
			r.Use(credentialLimiter)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	files, err := h.uploads.Parse(w, r, slotAvatar, slotCoverImage)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	defer files.Cleanup()

	user, err := h.service.Register(r.Context(), RegisterInput{
		FullName:       files.Value("fullName"),
		Email:          files.Value("email"),
		Username:       files.Value("username"),
		Password:       files.RawValue("password"),
		AvatarPath:     files.Path(slotAvatar),
		CoverImagePath: files.Path(slotCoverImage),
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, user, "User registered Successfully")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookies.SetSession(w, result.Tokens)

	core.OK(w, LoginResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "User logged In Successfully")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.service.Logout(
		r.Context(),
		middleware.GetUserID(r.Context()),
		middleware.GetClaims(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookies.ClearSession(w)
	core.OK(w, struct{}{}, "User logged Out")
}

// RefreshToken reads the refresh credential from its cookie and falls back
// to the JSON body.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var incoming string
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		incoming = cookie.Value
	}

	if incoming == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			core.BadRequest(w, "invalid request body")
			return
		}
		incoming = req.RefreshToken
	}

	pair, err := h.service.Refresh(r.Context(), incoming)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookies.SetSession(w, pair)
	core.OK(w, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.OldPassword,
		req.NewPassword,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, struct{}{}, "Password changed successfully")
}
