package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripDay is one calendar day within a trip's range.
// Days are generated in bulk when the trip is created and carry optional
// descriptive and budget fields that the owner fills in later.
type TripDay struct {
	ID            uuid.UUID
	TripID        uuid.UUID
	Date          time.Time
	DayIndex      int
	ThemeTitle    *string
	DayNote       *string
	BudgetPlanned *int
	BudgetSpent   *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GenerateDays returns the contiguous day set for trip: one TripDay per date
// from StartDate through EndDate inclusive, DayIndex counting up from 1.
// The caller is responsible for rejecting an inverted range first; an
// inverted range yields no days.
func GenerateDays(trip Trip) []TripDay {
	end := DateOf(trip.EndDate)
	days := make([]TripDay, 0, trip.DayCount())
	index := 1
	for date := DateOf(trip.StartDate); !date.After(end); date = date.AddDate(0, 0, 1) {
		days = append(days, TripDay{
			TripID:   trip.ID,
			Date:     date,
			DayIndex: index,
		})
		index++
	}
	return days
}

// DayUpdate is one entry of a bulk day update. Every field overwrites the
// stored value, so a nil field clears it.
type DayUpdate struct {
	DayID         uuid.UUID
	ThemeTitle    *string
	DayNote       *string
	BudgetPlanned *int
	BudgetSpent   *int
}

// Apply copies the update's fields onto day.
func (u DayUpdate) Apply(day TripDay) TripDay {
	day.ThemeTitle = u.ThemeTitle
	day.DayNote = u.DayNote
	day.BudgetPlanned = u.BudgetPlanned
	day.BudgetSpent = u.BudgetSpent
	return day
}
