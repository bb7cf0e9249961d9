// Package service contains the business logic for the Trip Diary planner.
// Services validate inputs, enforce ownership and scheduling rules, and
// orchestrate repo calls inside transactions.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/metrics"
	"github.com/tripdiary/backend/internal/repo"
)

const (
	maxTitleLen       = 50
	maxDestinationLen = 100
)

// TripService implements business logic for Trip operations.
type TripService struct {
	tx              repo.Transactor
	reads           repo.Repos
	defaultImageURL string
}

// NewTripService constructs a TripService. Writes run through tx; reads use
// reads directly. defaultImageURL is stored for trips created without an image.
func NewTripService(tx repo.Transactor, reads repo.Repos, defaultImageURL string) *TripService {
	return &TripService{tx: tx, reads: reads, defaultImageURL: defaultImageURL}
}

// Create validates a new trip owned by callerID, persists it, and generates
// its day set in the same transaction, so a trip is never visible without
// all of its days.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, callerID string, trip domain.Trip) (domain.Trip, error) {
	trip.OwnerID = callerID
	trip.StartDate = domain.DateOf(trip.StartDate)
	trip.EndDate = domain.DateOf(trip.EndDate)
	if err := validateTrip(trip, true); err != nil {
		return domain.Trip{}, err
	}
	if strings.TrimSpace(trip.ImageURL) == "" {
		trip.ImageURL = s.defaultImageURL
	}

	var created domain.Trip
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		var err error
		created, err = r.Trips.Create(ctx, trip)
		if err != nil {
			return err
		}
		days, err := r.Days.CreateBatch(ctx, created.ID, domain.GenerateDays(created))
		if err != nil {
			return err
		}
		metrics.DaysGeneratedTotal.Add(float64(len(days)))
		return nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	slog.InfoContext(ctx, "trip created", "trip_id", created.ID, "days", created.DayCount())
	return created, nil
}

// GetByID returns a trip the caller owns.
func (s *TripService) GetByID(ctx context.Context, tripID uuid.UUID, callerID string) (domain.Trip, error) {
	trip, err := ResolveOwnedTrip(ctx, s.reads.Trips, tripID, callerID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns one page of the caller's trips, newest start date first.
// Items is always non-nil so callers can safely range over it.
func (s *TripService) List(ctx context.Context, callerID string, p domain.PageRequest) (domain.Page[domain.Trip], error) {
	trips, total, err := s.reads.Trips.ListByOwner(ctx, callerID, p)
	if err != nil {
		return domain.Page[domain.Trip]{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return domain.Page[domain.Trip]{Items: trips, Total: total}, nil
}

// Update applies a descriptive patch to a trip the caller owns.
// Returns domain.ErrValidation if the patched trip violates business rules.
func (s *TripService) Update(ctx context.Context, tripID uuid.UUID, callerID string, patch domain.TripPatch) (domain.Trip, error) {
	var updated domain.Trip
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		trip, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID)
		if err != nil {
			return err
		}
		next := patch.Apply(trip)
		if err := validateTrip(next, false); err != nil {
			return err
		}
		updated, err = r.Trips.Update(ctx, next)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a trip the caller owns, along with its days, places, and items.
func (s *TripService) Delete(ctx context.Context, tripID uuid.UUID, callerID string) error {
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		return r.Trips.Delete(ctx, tripID)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	slog.InfoContext(ctx, "trip deleted", "trip_id", tripID)
	return nil
}

// validateTrip enforces business rules for trips.
//   - Destination must be non-empty (whitespace-only is rejected).
//   - Title and destination have length caps.
//   - On create, both dates are required, the end date must not be before
//     the start date, and the range may not exceed domain.MaxTripDays.
func validateTrip(t domain.Trip, creating bool) error {
	if strings.TrimSpace(t.Destination) == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(t.Destination) > maxDestinationLen {
		return fmt.Errorf("%w: destination must be at most %d characters", domain.ErrValidation, maxDestinationLen)
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be at most %d characters", domain.ErrValidation, maxTitleLen)
	}
	if !creating {
		return nil
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	if t.DayCount() > domain.MaxTripDays {
		return fmt.Errorf("%w: a trip may span at most %d days", domain.ErrValidation, domain.MaxTripDays)
	}
	return nil
}
