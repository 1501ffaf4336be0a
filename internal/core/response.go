// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(w, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func OK(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusOK, data, message)
}

func Created(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusCreated, data, message)
}

// JSONError is the single translation point from a Go error to the error
// envelope.
func JSONError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "code", appErr.Code)
	}

	env := Envelope{
		StatusCode: appErr.StatusCode,
		Data:       nil,
		Message:    appErr.Message,
		Success:    false,
	}
	if appErr.Code != "" {
		env.Errors = []string{appErr.Code}
	}

	writeEnvelope(w, env)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, BadRequestError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func InternalServerError(w http.ResponseWriter, err error) {
	JSONError(w, NewAppError(err, "Something went wrong", http.StatusInternalServerError, "INTERNAL_ERROR"))
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(env)
}
