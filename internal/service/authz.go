package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/metrics"
	"github.com/tripdiary/backend/internal/repo"
)

// ResolveOwnedTrip loads a trip and asserts callerID owns it. Every service
// operation that reads or touches trip data goes through here first, with
// trips bound to the operation's transaction where there is one.
//
// Returns domain.ErrNotFound if the trip does not exist and
// domain.ErrForbidden if it belongs to someone else.
func ResolveOwnedTrip(ctx context.Context, trips repo.TripRepo, tripID uuid.UUID, callerID string) (domain.Trip, error) {
	trip, err := trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.ResolveOwnedTrip: %w", err)
	}
	if !trip.OwnedBy(callerID) {
		metrics.ForbiddenTotal.Inc()
		slog.InfoContext(ctx, "trip access denied", "trip_id", tripID, "caller_id", callerID)
		return domain.Trip{}, fmt.Errorf("service.ResolveOwnedTrip: %w: trip belongs to another user", domain.ErrForbidden)
	}
	return trip, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
