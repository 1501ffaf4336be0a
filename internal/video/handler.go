// AngelaMos | 2026
// handler.go

package video

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
	"github.com/vidtube/go-backend/internal/upload"
)

const (
	slotVideoFile = "videoFile"
	slotThumbnail = "thumbnail"
)

type publishForm struct {
	Title       string  `validate:"required,max=200"`
	Description string  `validate:"required,max=5000"`
	Duration    float64 `validate:"gte=0"`
}

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

func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Publish)
		r.Get("/{videoID}", h.Get)
	})
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	files, err := h.uploads.Parse(w, r, slotVideoFile, slotThumbnail)
	if err != nil {
		core.JSONError(w, err)
		return
	}
	defer files.Cleanup()

	form := publishForm{
		Title:       files.Value("title"),
		Description: files.Value("description"),
	}
	if raw := files.Value("duration"); raw != "" {
		form.Duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(form.Duration) || math.IsInf(form.Duration, 0) {
			core.BadRequest(w, "duration must be a number")
			return
		}
	}

	isPublished := true
	if raw := files.Value("isPublished"); raw != "" {
		isPublished, err = strconv.ParseBool(raw)
		if err != nil {
			core.BadRequest(w, "isPublished must be true or false")
			return
		}
	}

	if err := h.validator.Struct(form); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	video, err := h.service.Publish(r.Context(), middleware.GetUserID(r.Context()), PublishInput{
		Title:         form.Title,
		Description:   form.Description,
		Duration:      form.Duration,
		IsPublished:   isPublished,
		VideoPath:     files.Path(slotVideoFile),
		ThumbnailPath: files.Path(slotThumbnail),
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, video, "Video published successfully")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	video, err := h.service.Watch(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "videoID"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, video, "Video fetched successfully")
}
