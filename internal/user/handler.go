// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
	"github.com/vidtube/go-backend/internal/upload"
)

type Handler struct {
	service   *Service
	uploads   *upload.Parser
	validator *validator.Validate
}

func NewHandler(service *Service, uploads *upload.Parser) *Handler {
	return &Handler{
		service:   service,
		uploads:   uploads,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/current-user", h.CurrentUser)
		r.Patch("/update-account", h.UpdateAccount)
		r.Patch("/update-avatar", h.UpdateAvatar)
		r.Patch("/update-cover-image", h.UpdateCoverImage)
		r.Get("/channel/{username}", h.ChannelProfile)
		r.Get("/history", h.WatchHistory)
	})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user, "Current user fetched successfully")
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateAccount(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user, "Account details updated successfully")
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	files, err := h.uploads.Parse(w, r, "avatar")
	if err != nil {
		core.JSONError(w, err)
		return
	}
	defer files.Cleanup()

	user, err := h.service.UpdateAvatar(r.Context(), middleware.GetUserID(r.Context()), files.Path("avatar"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user, "Avatar image updated successfully")
}

func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	files, err := h.uploads.Parse(w, r, "coverImage")
	if err != nil {
		core.JSONError(w, err)
		return
	}
	defer files.Cleanup()

	user, err := h.service.UpdateCoverImage(r.Context(), middleware.GetUserID(r.Context()), files.Path("coverImage"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user, "Cover image updated successfully")
}

func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.ChannelProfile(
		r.Context(),
		chi.URLParam(r, "username"),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, profile, "User channel fetched successfully")
}

func (h *Handler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.WatchHistory(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, videos, "Watch history fetched successfully")
}
