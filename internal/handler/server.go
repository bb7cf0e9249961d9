// Package handler implements the HTTP handlers for the Trip Diary API.
// All handlers are methods on Server. They are split into domain-specific
// files (health.go, trip.go, timeline.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, callerID string, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, tripID uuid.UUID, callerID string) (domain.Trip, error)
	List(ctx context.Context, callerID string, p domain.PageRequest) (domain.Page[domain.Trip], error)
	Update(ctx context.Context, tripID uuid.UUID, callerID string, patch domain.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, tripID uuid.UUID, callerID string) error
}

// PlaceServicer defines the operations on a trip's places.
type PlaceServicer interface {
	Create(ctx context.Context, tripID uuid.UUID, callerID string, place domain.Place) (domain.Place, error)
	GetByID(ctx context.Context, tripID, placeID uuid.UUID, callerID string) (domain.Place, error)
	List(ctx context.Context, tripID uuid.UUID, callerID string, p domain.PageRequest) (domain.Page[domain.Place], error)
	Update(ctx context.Context, tripID, placeID uuid.UUID, callerID string, patch domain.PlacePatch) (domain.Place, error)
	Delete(ctx context.Context, tripID, placeID uuid.UUID, callerID string) error
}

// TimelineServicer defines the timeline and day operations.
type TimelineServicer interface {
	Timeline(ctx context.Context, tripID uuid.UUID, callerID string) ([]domain.DayTimeline, error)
	AddItem(ctx context.Context, tripID uuid.UUID, callerID string, in service.AddItemInput) (uuid.UUID, error)
	UpdateItem(ctx context.Context, tripID, itemID uuid.UUID, callerID string, in service.UpdateItemInput) (domain.TimelineItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID, callerID string) error
	BulkUpdateDays(ctx context.Context, tripID uuid.UUID, callerID string, updates []domain.DayUpdate) ([]domain.TripDay, error)
}

// ExportServicer defines the itinerary export operation.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID, callerID string) (domain.TripExport, error)
}

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the services behind every API endpoint.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips    TripServicer
	places   PlaceServicer
	timeline TimelineServicer
	export   ExportServicer
	db       Pinger
	now      func() time.Time
}

// NewServer constructs the Server with all its dependencies.
// Any servicer may be nil in tests that do not exercise its routes.
func NewServer(trips TripServicer, places PlaceServicer, timeline TimelineServicer, export ExportServicer, db Pinger) *Server {
	return &Server{
		trips:    trips,
		places:   places,
		timeline: timeline,
		export:   export,
		db:       db,
		now:      time.Now,
	}
}
