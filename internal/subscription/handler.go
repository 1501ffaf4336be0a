// AngelaMos | 2026
// handler.go

package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/c/{channelID}", h.Toggle)
		r.Get("/c/{channelID}", h.Subscribers)
		r.Get("/u/{subscriberID}", h.SubscribedChannels)
	})
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Toggle(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "channelID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	message := "Unsubscribed successfully"
	if result.Subscribed {
		message = "Subscribed successfully"
	}

	core.OK(w, result, message)
}

func (h *Handler) Subscribers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.Subscribers(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, members, "Subscribers fetched successfully")
}

func (h *Handler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.SubscribedChannels(r.Context(), chi.URLParam(r, "subscriberID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, members, "Subscribed channels fetched successfully")
}
