package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/middleware"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// retryAfterSeconds is advertised on 503 responses caused by contention.
const retryAfterSeconds = "1"

// errorMapping lists the domain sentinels in the order they are checked.
var errorMapping = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrContention, http.StatusServiceUnavailable, "contention"},
}

// writeServiceError maps an error from the service layer to an HTTP response.
// Unrecognised errors are logged and answered with a generic 500 so that
// internals never leak to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		if m.status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", retryAfterSeconds)
			slog.WarnContext(r.Context(), "request failed under contention", "error", err)
		}
		writeError(w, m.status, m.code, unwrapMessage(err, m.sentinel))
		return
	}

	slog.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// writeBadRequest answers a request rejected before reaching the service
// layer, such as a malformed body or path parameter.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, "bad_request", msg)
}

// writeDecodeError reports a body that could not be decoded: 413 when the
// body size limit tripped, 400 otherwise.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	writeBadRequest(w, "malformed JSON body")
}

// writeValidationErrors reports struct tag validation failures as 422,
// naming the first failing field by its JSON name.
func writeValidationErrors(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		writeError(w, http.StatusUnprocessableEntity, "validation_error", fieldMessage(fe))
		return
	}
	writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "url":
		return fe.Field() + " must be a URL"
	default:
		return fe.Field() + " is invalid"
	}
}

// callerID returns the authenticated caller, or writes 401 and reports false.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.CallerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return id, true
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: validation error: destination is required"
// → "destination is required". The text after the last occurrence of the
// sentinel is used; a bare sentinel yields the sentinel text itself.
func unwrapMessage(err error, sentinel error) string {
	if errors.Is(sentinel, domain.ErrContention) {
		return "the server is busy, please retry"
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}
