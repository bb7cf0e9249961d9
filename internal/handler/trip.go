package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripdiary/backend/internal/domain"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Title       string              `json:"title" validate:"max=50"`
	Destination string              `json:"destination" validate:"required"`
	StartDate   *openapi_types.Date `json:"start_date" validate:"required"`
	EndDate     *openapi_types.Date `json:"end_date" validate:"required"`
	ImageURL    string              `json:"image_url" validate:"omitempty,url"`
	Description string              `json:"description"`
	IsDomestic  bool                `json:"is_domestic"`
}

// UpdateTripRequest is the body of PUT /trips/{tripId}. Omitted fields are
// left unchanged. The dates are accepted only to reject them with a clear
// message: a trip's days are fixed at creation.
type UpdateTripRequest struct {
	Title       *string             `json:"title" validate:"omitempty,max=50"`
	Destination *string             `json:"destination"`
	ImageURL    *string             `json:"image_url" validate:"omitempty,url"`
	Description *string             `json:"description"`
	IsDomestic  *bool               `json:"is_domestic"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
}

// TripResponse is the JSON representation of a trip.
type TripResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Destination string             `json:"destination"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	ImageURL    string             `json:"image_url"`
	Description string             `json:"description"`
	IsDomestic  bool               `json:"is_domestic"`
	Status      string             `json:"status"`
	DayCount    int                `json:"day_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateTrip handles POST /trips.
// The trip's days are generated in the same transaction.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var body CreateTripRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}

	created, err := s.trips.Create(r.Context(), caller, domain.Trip{
		Title:       body.Title,
		Destination: body.Destination,
		StartDate:   body.StartDate.Time,
		EndDate:     body.EndDate.Time,
		ImageURL:    body.ImageURL,
		Description: body.Description,
		IsDomestic:  body.IsDomestic,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := s.trips.List(r.Context(), caller, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data := make([]TripResponse, len(page.Items))
	for i, t := range page.Items {
		data[i] = s.tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, ListResponse[TripResponse]{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: page.Total},
	})
}

// GetTrip handles GET /trips/{tripId}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}

	trip, err := s.trips.GetByID(r.Context(), tripID, caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{tripId}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body UpdateTripRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}
	if body.StartDate != nil || body.EndDate != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "trip dates cannot be changed")
		return
	}

	updated, err := s.trips.Update(r.Context(), tripID, caller, domain.TripPatch{
		Title:       body.Title,
		Destination: body.Destination,
		ImageURL:    body.ImageURL,
		Description: body.Description,
		IsDomestic:  body.IsDomestic,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{tripId}. Days, places, and timeline
// items are removed with the trip.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), tripID, caller); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func (s *Server) tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		ImageURL:    t.ImageURL,
		Description: t.Description,
		IsDomestic:  t.IsDomestic,
		Status:      t.Status(s.now()),
		DayCount:    t.DayCount(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
