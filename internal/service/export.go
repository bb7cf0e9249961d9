package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/repo"
)

// ExportService assembles a trip's full itinerary for rendering as a
// calendar or spreadsheet.
type ExportService struct {
	tx repo.Transactor
}

// NewExportService constructs an ExportService.
func NewExportService(tx repo.Transactor) *ExportService {
	return &ExportService{tx: tx}
}

// Export returns the trip and every day of its timeline, read from one
// snapshot.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID, callerID string) (domain.TripExport, error) {
	var export domain.TripExport
	err := s.tx.ReadSnapshot(ctx, func(r repo.Repos) error {
		trip, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID)
		if err != nil {
			return err
		}
		days, err := loadTimeline(ctx, r, tripID)
		if err != nil {
			return err
		}
		export = domain.TripExport{Trip: trip, Days: days}
		return nil
	})
	if err != nil {
		return domain.TripExport{}, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return export, nil
}
