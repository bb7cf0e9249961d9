// Package domain contains the core data types for the Trip Diary planner.
// Apart from uuid it has no external dependencies and is imported by every
// other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip statuses derived from the end date.
const (
	TripStatusPast     = "past"
	TripStatusUpcoming = "upcoming"
)

// MaxTripDays caps the length of a trip so day generation stays bounded.
const MaxTripDays = 366

// Trip is a user-owned travel plan with a fixed, inclusive date range.
// A trip is the top-level aggregate; days and places belong to a trip.
// StartDate and EndDate are calendar dates held as UTC midnight.
type Trip struct {
	ID          uuid.UUID
	OwnerID     string
	Title       string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	ImageURL    string
	Description string
	IsDomestic  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status reports "past" once today is after EndDate, "upcoming" otherwise.
func (t Trip) Status(today time.Time) string {
	if DateOf(today).After(t.EndDate) {
		return TripStatusPast
	}
	return TripStatusUpcoming
}

// DayCount returns the number of calendar days in the trip's range,
// or 0 when the range is inverted.
func (t Trip) DayCount() int {
	if t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(DateOf(t.EndDate).Sub(DateOf(t.StartDate)).Hours()/24) + 1
}

// OwnedBy reports whether callerID is the trip's owner.
func (t Trip) OwnedBy(callerID string) bool {
	return callerID != "" && t.OwnerID == callerID
}

// TripPatch carries the descriptive fields of a trip update.
// Nil fields keep their stored value. Dates are fixed at creation because
// the day set is generated from them.
type TripPatch struct {
	Title       *string
	Destination *string
	ImageURL    *string
	Description *string
	IsDomestic  *bool
}

// Apply returns a copy of t with every non-nil patch field applied.
func (p TripPatch) Apply(t Trip) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Destination != nil {
		t.Destination = *p.Destination
	}
	if p.ImageURL != nil {
		t.ImageURL = *p.ImageURL
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsDomestic != nil {
		t.IsDomestic = *p.IsDomestic
	}
	return t
}

// DateOf truncates t to its calendar date at UTC midnight.
// The wall-clock date of t in its own location is kept.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
