package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists outside the scope it was looked up in
// (e.g. a place that belongs to another trip).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, start time not before end time).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller is not the owner of the trip the
// operation targets. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would break a uniqueness rule, most
// notably a timeline item overlapping another item on the same day.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrContention is returned when a transaction kept failing on lock or
// serialization errors after all retries. The caller may retry the request.
// Handlers should map this to HTTP 503.
var ErrContention = errors.New("storage contention")
