package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/repo"
)

const maxPlaceNameLen = 120

// PlaceService implements business logic for the places collected for a trip.
// Every operation first asserts the caller owns the trip.
type PlaceService struct {
	tx    repo.Transactor
	reads repo.Repos
}

// NewPlaceService constructs a PlaceService.
func NewPlaceService(tx repo.Transactor, reads repo.Repos) *PlaceService {
	return &PlaceService{tx: tx, reads: reads}
}

// Create validates and persists a new place under tripID.
// Returns domain.ErrValidation if input violates business rules.
func (s *PlaceService) Create(ctx context.Context, tripID uuid.UUID, callerID string, place domain.Place) (domain.Place, error) {
	place.TripID = tripID
	if err := validatePlace(place); err != nil {
		return domain.Place{}, err
	}
	if strings.TrimSpace(place.CoverImageURL) == "" {
		place.CoverImageURL = domain.DefaultPlaceCover(place.Category)
	}

	var created domain.Place
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		var err error
		created, err = r.Places.Create(ctx, place)
		return err
	})
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single place of the trip.
// Returns domain.ErrNotFound if no place with that ID exists under that trip.
func (s *PlaceService) GetByID(ctx context.Context, tripID, placeID uuid.UUID, callerID string) (domain.Place, error) {
	if _, err := ResolveOwnedTrip(ctx, s.reads.Trips, tripID, callerID); err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetByID: %w", err)
	}
	place, err := s.reads.Places.GetByID(ctx, tripID, placeID)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetByID: %w", err)
	}
	return place, nil
}

// List returns one page of the trip's places in creation order.
// Items is always non-nil.
func (s *PlaceService) List(ctx context.Context, tripID uuid.UUID, callerID string, p domain.PageRequest) (domain.Page[domain.Place], error) {
	if _, err := ResolveOwnedTrip(ctx, s.reads.Trips, tripID, callerID); err != nil {
		return domain.Page[domain.Place]{}, fmt.Errorf("service.PlaceService.List: %w", err)
	}
	places, total, err := s.reads.Places.ListByTrip(ctx, tripID, p)
	if err != nil {
		return domain.Page[domain.Place]{}, fmt.Errorf("service.PlaceService.List: %w", err)
	}
	if places == nil {
		places = []domain.Place{}
	}
	return domain.Page[domain.Place]{Items: places, Total: total}, nil
}

// Update applies patch to a place of the trip.
// Returns domain.ErrValidation if the patched place is invalid and
// domain.ErrNotFound if the place does not exist under that trip.
func (s *PlaceService) Update(ctx context.Context, tripID, placeID uuid.UUID, callerID string, patch domain.PlacePatch) (domain.Place, error) {
	var updated domain.Place
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		current, err := r.Places.GetByID(ctx, tripID, placeID)
		if err != nil {
			return err
		}
		next := patch.Apply(current)
		if err := validatePlace(next); err != nil {
			return err
		}
		updated, err = r.Places.Update(ctx, next)
		return err
	})
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a place of the trip. Items that used it stay scheduled
// without a place.
func (s *PlaceService) Delete(ctx context.Context, tripID, placeID uuid.UUID, callerID string) error {
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		return r.Places.Delete(ctx, tripID, placeID)
	})
	if err != nil {
		return fmt.Errorf("service.PlaceService.Delete: %w", err)
	}
	return nil
}

// validatePlace requires a non-blank name of bounded length.
func validatePlace(p domain.Place) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(p.Name) > maxPlaceNameLen {
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxPlaceNameLen)
	}
	return nil
}
