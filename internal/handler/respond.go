package handler

import (
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tripdiary/backend/internal/domain"
)

// validate checks request structs against their `validate` tags. Field
// names in errors use the JSON name so messages match the request body.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}

// readBody reads the whole request body. The body size middleware bounds it.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, io.ErrUnexpectedEOF
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// decodeJSON decodes raw into dst, rejecting unknown fields and empty bodies.
func decodeJSON(raw []byte, dst any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return io.ErrUnexpectedEOF
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bindBody reads, decodes, and validates the request body into dst, writing
// the error response itself when it fails.
func bindBody(w http.ResponseWriter, r *http.Request, dst any) ([]byte, bool) {
	raw, err := readBody(r)
	if err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	if err := decodeJSON(raw, dst); err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	if err := validate.Struct(dst); err != nil {
		writeValidationErrors(w, err)
		return nil, false
	}
	return raw, true
}

// pathUUID binds a UUID path parameter, writing 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeBadRequest(w, "invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams binds the optional ?page= and ?limit= query parameters.
func pageParams(w http.ResponseWriter, r *http.Request) (domain.PageRequest, bool) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		writeBadRequest(w, "invalid page: must be an integer")
		return domain.PageRequest{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeBadRequest(w, "invalid limit: must be an integer")
		return domain.PageRequest{}, false
	}
	return domain.NewPageRequest(page, limit), true
}

// Pagination describes the page returned in a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
