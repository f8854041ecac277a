// Package respond writes the JSON envelope every API response shares and maps
// domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrJamesThe3rd/payadvice/internal/advice"
	"github.com/MrJamesThe3rd/payadvice/internal/export"
	"github.com/MrJamesThe3rd/payadvice/internal/payment"
	"github.com/MrJamesThe3rd/payadvice/internal/recipient"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a successful envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an unsuccessful envelope with the given message.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

// Error maps err to a status code and writes it. Unknown errors are logged and
// reported as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	Fail(w, status, message)
}

func classify(err error) (int, string) {
	var dup *recipient.DuplicateError
	if errors.As(err, &dup) {
		return http.StatusConflict, dup.Error()
	}

	var renderErr *advice.RenderError
	if errors.As(err, &renderErr) {
		return http.StatusInternalServerError, "could not render payment advice"
	}

	switch {
	case errors.Is(err, payment.ErrValidation), errors.Is(err, recipient.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrNotFound), errors.Is(err, recipient.ErrNotFound),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, payment.ErrDuplicate), errors.Is(err, payment.ErrConflict),
		errors.Is(err, payment.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
