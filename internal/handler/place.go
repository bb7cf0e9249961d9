package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
)

// CreatePlaceRequest is the body of POST /trips/{tripId}/places.
type CreatePlaceRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=50"`
}

// UpdatePlaceRequest is the body of PUT /trips/{tripId}/places/{placeId}.
type UpdatePlaceRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
}

// PlaceResponse is the JSON representation of a place.
type PlaceResponse struct {
	ID            uuid.UUID `json:"id"`
	TripID        uuid.UUID `json:"trip_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	CoverImageURL string    `json:"cover_image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreatePlace handles POST /trips/{tripId}/places.
func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body CreatePlaceRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}

	created, err := s.places.Create(r.Context(), tripID, caller, domain.Place{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeToResponse(created))
}

// ListPlaces handles GET /trips/{tripId}/places.
func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	p, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := s.places.List(r.Context(), tripID, caller, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	data := make([]PlaceResponse, len(page.Items))
	for i, pl := range page.Items {
		data[i] = placeToResponse(pl)
	}
	writeJSON(w, http.StatusOK, ListResponse[PlaceResponse]{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: page.Total},
	})
}

// GetPlace handles GET /trips/{tripId}/places/{placeId}.
func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	caller, tripID, placeID, ok := placePath(w, r)
	if !ok {
		return
	}

	place, err := s.places.GetByID(r.Context(), tripID, placeID, caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToResponse(place))
}

// UpdatePlace handles PUT /trips/{tripId}/places/{placeId}.
func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	caller, tripID, placeID, ok := placePath(w, r)
	if !ok {
		return
	}
	var body UpdatePlaceRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}

	updated, err := s.places.Update(r.Context(), tripID, placeID, caller, domain.PlacePatch{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToResponse(updated))
}

// DeletePlace handles DELETE /trips/{tripId}/places/{placeId}.
// Timeline items that referenced the place keep their slot without a place.
func (s *Server) DeletePlace(w http.ResponseWriter, r *http.Request) {
	caller, tripID, placeID, ok := placePath(w, r)
	if !ok {
		return
	}

	if err := s.places.Delete(r.Context(), tripID, placeID, caller); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func placePath(w http.ResponseWriter, r *http.Request) (caller string, tripID, placeID uuid.UUID, ok bool) {
	if caller, ok = callerID(w, r); !ok {
		return
	}
	if tripID, ok = pathUUID(w, r, "tripId"); !ok {
		return
	}
	placeID, ok = pathUUID(w, r, "placeId")
	return
}

func placeToResponse(p domain.Place) PlaceResponse {
	return PlaceResponse{
		ID:            p.ID,
		TripID:        p.TripID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		CoverImageURL: p.CoverImageURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
