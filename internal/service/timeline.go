package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/metrics"
	"github.com/tripdiary/backend/internal/repo"
)

// AddItemInput carries the fields of a new timeline item. DayDate, Start,
// and End are required; PlaceID is optional.
type AddItemInput struct {
	DayDate *time.Time
	Start   *domain.TimeOfDay
	End     *domain.TimeOfDay
	PlaceID *uuid.UUID
}

// UpdateItemInput carries the new state of a timeline item. DayDate, Start,
// and End are required and replace the stored values; DayDate may name a
// different day of the same trip, which moves the item.
// PlaceID left unset keeps the stored place.
type UpdateItemInput struct {
	DayDate *time.Time
	Start   *domain.TimeOfDay
	End     *domain.TimeOfDay
	PlaceID domain.Optional[uuid.UUID]
}

// TimelineService owns a trip's timeline: reading it as a per-day tree,
// adding, moving, and deleting items, and bulk-editing day attributes.
//
// Every mutation runs in one transaction that locks the day it writes to
// before checking for overlaps, so two writers on the same day are
// serialized and an overlapping pair can never both commit.
type TimelineService struct {
	tx repo.Transactor
}

// NewTimelineService constructs a TimelineService.
func NewTimelineService(tx repo.Transactor) *TimelineService {
	return &TimelineService{tx: tx}
}

// Timeline returns every day of the trip in date order, each with its items
// in start-time order and their place names resolved. The whole tree is read
// from one snapshot.
func (s *TimelineService) Timeline(ctx context.Context, tripID uuid.UUID, callerID string) ([]domain.DayTimeline, error) {
	var days []domain.DayTimeline
	err := s.tx.ReadSnapshot(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		var err error
		days, err = loadTimeline(ctx, r, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.TimelineService.Timeline: %w", err)
	}
	return days, nil
}

// loadTimeline reads days, items, and place names with one query each.
func loadTimeline(ctx context.Context, r repo.Repos, tripID uuid.UUID) ([]domain.DayTimeline, error) {
	days, err := r.Days.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return []domain.DayTimeline{}, nil
	}

	dayIDs := make([]uuid.UUID, len(days))
	for i, d := range days {
		dayIDs[i] = d.ID
	}
	items, err := r.Items.ListByDayIDs(ctx, dayIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var placeIDs []uuid.UUID
	for _, it := range items {
		if it.PlaceID != nil && !seen[*it.PlaceID] {
			seen[*it.PlaceID] = true
			placeIDs = append(placeIDs, *it.PlaceID)
		}
	}
	names := make(map[uuid.UUID]string, len(placeIDs))
	if len(placeIDs) > 0 {
		places, err := r.Places.ListByIDs(ctx, tripID, placeIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range places {
			names[p.ID] = p.Name
		}
	}

	schedules := domain.BuildSchedules(days, items)
	out := make([]domain.DayTimeline, len(schedules))
	for i, sch := range schedules {
		entries := make([]domain.TimelineEntry, len(sch.Items))
		for j, it := range sch.Items {
			entries[j] = domain.TimelineEntry{Item: it}
			if it.PlaceID != nil {
				if name, ok := names[*it.PlaceID]; ok {
					entries[j].PlaceName = &name
				}
			}
		}
		out[i] = domain.DayTimeline{Day: sch.Day, Entries: entries}
	}
	return out, nil
}

// AddItem schedules a new item on the trip day matching in.DayDate and
// returns its ID.
// Returns domain.ErrValidation for missing or inverted times or a date
// outside the trip, domain.ErrNotFound for a place of another trip, and
// domain.ErrConflict if the interval overlaps an existing item.
func (s *TimelineService) AddItem(ctx context.Context, tripID uuid.UUID, callerID string, in AddItemInput) (uuid.UUID, error) {
	iv, err := requireInterval(in.DayDate, in.Start, in.End)
	if err != nil {
		return uuid.Nil, err
	}

	var created domain.TimelineItem
	err = s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		day, err := lockDay(ctx, r, tripID, *in.DayDate)
		if err != nil {
			return err
		}
		if err := checkOverlap(ctx, r, day, iv, nil, "add"); err != nil {
			return err
		}
		if in.PlaceID != nil {
			if err := requirePlace(ctx, r, tripID, *in.PlaceID); err != nil {
				return err
			}
		}
		created, err = r.Items.Create(ctx, domain.TimelineItem{
			DayID:   day.ID,
			PlaceID: in.PlaceID,
			Start:   iv.Start,
			End:     iv.End,
		})
		return err
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TimelineService.AddItem: %w", err)
	}

	slog.InfoContext(ctx, "timeline item added", "trip_id", tripID, "item_id", created.ID, "day", created.DayDate.Format(time.DateOnly))
	return created.ID, nil
}

// UpdateItem replaces the day, times, and place of an item in one write.
// The item's own slot is ignored by the overlap check, so it can be shifted
// within its current interval or saved unchanged.
// Returns domain.ErrNotFound if the item does not exist, domain.ErrValidation
// if it belongs to a different trip or the input is invalid, and
// domain.ErrConflict if the new interval overlaps another item.
func (s *TimelineService) UpdateItem(ctx context.Context, tripID, itemID uuid.UUID, callerID string, in UpdateItemInput) (domain.TimelineItem, error) {
	iv, err := requireInterval(in.DayDate, in.Start, in.End)
	if err != nil {
		return domain.TimelineItem{}, err
	}

	var updated domain.TimelineItem
	err = s.tx.WithTx(ctx, func(r repo.Repos) error {
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		item, err := r.Items.LockByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.TripID != tripID {
			return fmt.Errorf("%w: item belongs to a different trip", domain.ErrValidation)
		}
		day, err := lockDay(ctx, r, tripID, *in.DayDate)
		if err != nil {
			return err
		}
		if err := checkOverlap(ctx, r, day, iv, &item.ID, "update"); err != nil {
			return err
		}

		placeID := in.PlaceID.Or(item.PlaceID)
		if in.PlaceID.Set && placeID != nil {
			if err := requirePlace(ctx, r, tripID, *placeID); err != nil {
				return err
			}
		}

		item.DayID = day.ID
		item.Start = iv.Start
		item.End = iv.End
		item.PlaceID = placeID
		updated, err = r.Items.Update(ctx, item)
		return err
	})
	if err != nil {
		return domain.TimelineItem{}, fmt.Errorf("service.TimelineService.UpdateItem: %w", err)
	}
	return updated, nil
}

// DeleteItem removes a single item. The owning trip is derived from the
// item itself, so only the item ID is needed.
// Returns domain.ErrNotFound if the item does not exist.
func (s *TimelineService) DeleteItem(ctx context.Context, itemID uuid.UUID, callerID string) error {
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		item, err := r.Items.LockByID(ctx, itemID)
		if err != nil {
			return err
		}
		if _, err := ResolveOwnedTrip(ctx, r.Trips, item.TripID, callerID); err != nil {
			return err
		}
		return r.Items.Delete(ctx, itemID)
	})
	if err != nil {
		return fmt.Errorf("service.TimelineService.DeleteItem: %w", err)
	}
	return nil
}

// BulkUpdateDays overwrites the theme, note, and budgets of several days of
// one trip. Either every day is updated or none is.
// Returns domain.ErrValidation for an empty batch or a missing day ID and
// domain.ErrNotFound if any day is not part of the trip.
func (s *TimelineService) BulkUpdateDays(ctx context.Context, tripID uuid.UUID, callerID string, updates []domain.DayUpdate) ([]domain.TripDay, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: at least one day update is required", domain.ErrValidation)
	}
	ids := make([]uuid.UUID, 0, len(updates))
	seen := make(map[uuid.UUID]bool, len(updates))
	for i, u := range updates {
		if u.DayID == uuid.Nil {
			return nil, fmt.Errorf("%w: day_id is required (entry %d)", domain.ErrValidation, i)
		}
		if seen[u.DayID] {
			return nil, fmt.Errorf("%w: day %s appears more than once", domain.ErrValidation, u.DayID)
		}
		seen[u.DayID] = true
		ids = append(ids, u.DayID)
	}
	if err := validateDayUpdates(updates); err != nil {
		return nil, err
	}

	var out []domain.TripDay
	err := s.tx.WithTx(ctx, func(r repo.Repos) error {
		out = nil
		if _, err := ResolveOwnedTrip(ctx, r.Trips, tripID, callerID); err != nil {
			return err
		}
		days, err := r.Days.LockByIDs(ctx, tripID, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]domain.TripDay, len(days))
		for _, d := range days {
			byID[d.ID] = d
		}
		for _, u := range updates {
			if _, ok := byID[u.DayID]; !ok {
				return fmt.Errorf("%w: day %s is not part of this trip", domain.ErrNotFound, u.DayID)
			}
		}
		for _, u := range updates {
			saved, err := r.Days.UpdateAttributes(ctx, u.Apply(byID[u.DayID]))
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.TimelineService.BulkUpdateDays: %w", err)
	}
	return out, nil
}

// requireInterval checks that a day and both times are present and form a
// valid interval.
func requireInterval(day *time.Time, start, end *domain.TimeOfDay) (domain.Interval, error) {
	if day == nil || day.IsZero() {
		return domain.Interval{}, fmt.Errorf("%w: day_date is required", domain.ErrValidation)
	}
	if start == nil || end == nil {
		return domain.Interval{}, fmt.Errorf("%w: start_time and end_time are required", domain.ErrValidation)
	}
	iv := domain.Interval{Start: *start, End: *end}
	if err := iv.Validate(); err != nil {
		return domain.Interval{}, err
	}
	return iv, nil
}

// lockDay resolves and locks the trip day for date. A date outside the trip
// is a validation failure rather than a missing resource.
func lockDay(ctx context.Context, r repo.Repos, tripID uuid.UUID, date time.Time) (domain.TripDay, error) {
	day, err := r.Days.LockByTripAndDate(ctx, tripID, domain.DateOf(date))
	if err != nil {
		if isNotFound(err) {
			return domain.TripDay{}, fmt.Errorf("%w: day not found: %s is outside the trip", domain.ErrValidation, date.Format(time.DateOnly))
		}
		return domain.TripDay{}, err
	}
	return day, nil
}

// requirePlace asserts placeID names a place of tripID.
func requirePlace(ctx context.Context, r repo.Repos, tripID, placeID uuid.UUID) error {
	if _, err := r.Places.GetByID(ctx, tripID, placeID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: place %s is not part of this trip", domain.ErrNotFound, placeID)
		}
		return err
	}
	return nil
}

// checkOverlap fails with domain.ErrConflict if iv intersects any item on
// day other than exclude. The message names the clashing item's slot.
func checkOverlap(ctx context.Context, r repo.Repos, day domain.TripDay, iv domain.Interval, exclude *uuid.UUID, op string) error {
	overlaps, err := r.Items.HasOverlap(ctx, day.ID, iv, exclude)
	if err != nil {
		return err
	}
	if !overlaps {
		return nil
	}
	metrics.TimelineConflictsTotal.WithLabelValues(op).Inc()

	items, err := r.Items.ListByDayIDs(ctx, []uuid.UUID{day.ID})
	if err != nil {
		return err
	}
	sched := domain.DaySchedule{Day: day, Items: items}
	if clash, ok := sched.Conflicts(iv, exclude); ok {
		return fmt.Errorf("%w: %s-%s overlaps an existing item at %s-%s on %s",
			domain.ErrConflict, iv.Start, iv.End, clash.Start, clash.End, day.Date.Format(time.DateOnly))
	}
	return fmt.Errorf("%w: %s-%s overlaps an existing item on %s",
		domain.ErrConflict, iv.Start, iv.End, day.Date.Format(time.DateOnly))
}

// validateDayUpdates rejects negative budgets.
func validateDayUpdates(updates []domain.DayUpdate) error {
	for _, u := range updates {
		if u.BudgetPlanned != nil && *u.BudgetPlanned < 0 {
			return fmt.Errorf("%w: budget_planned must not be negative", domain.ErrValidation)
		}
		if u.BudgetSpent != nil && *u.BudgetSpent < 0 {
			return fmt.Errorf("%w: budget_spent must not be negative", domain.ErrValidation)
		}
	}
	return nil
}
