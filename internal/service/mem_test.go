package service_test

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/repo"
)

// memDB is an in-memory stand-in for the four tables. It lets service tests
// assert on state after a call, which function-field mocks cannot do.
// fail injects an error into the named repo method, e.g. "Items.Create";
// failAfter lets that many calls succeed first.
type memDB struct {
	trips     map[uuid.UUID]domain.Trip
	days      map[uuid.UUID]domain.TripDay
	places    map[uuid.UUID]domain.Place
	items     map[uuid.UUID]domain.TimelineItem
	fail      map[string]error
	failAfter map[string]int
	snapshots int
}

func newMemDB() *memDB {
	return &memDB{
		trips:  map[uuid.UUID]domain.Trip{},
		days:   map[uuid.UUID]domain.TripDay{},
		places: map[uuid.UUID]domain.Place{},
		items:  map[uuid.UUID]domain.TimelineItem{},
		fail:   map[string]error{},

		failAfter: map[string]int{},
	}
}

func (m *memDB) err(method string) error {
	if n := m.failAfter[method]; n > 0 {
		m.failAfter[method] = n - 1
		return nil
	}
	return m.fail[method]
}

func (m *memDB) snapshot() *memDB {
	return &memDB{
		trips:  maps.Clone(m.trips),
		days:   maps.Clone(m.days),
		places: maps.Clone(m.places),
		items:  maps.Clone(m.items),
	}
}

func (m *memDB) restore(s *memDB) {
	m.trips, m.days, m.places, m.items = s.trips, s.days, s.places, s.items
}

func (m *memDB) repos() repo.Repos {
	return repo.Repos{
		Trips:  memTrips{m},
		Days:   memDays{m},
		Places: memPlaces{m},
		Items:  memItems{m},
	}
}

// WithTx implements repo.Transactor with snapshot rollback.
func (m *memDB) WithTx(_ context.Context, fn func(r repo.Repos) error) error {
	snap := m.snapshot()
	if err := fn(m.repos()); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// ReadSnapshot implements repo.Transactor and counts its calls.
func (m *memDB) ReadSnapshot(_ context.Context, fn func(r repo.Repos) error) error {
	m.snapshots++
	return fn(m.repos())
}

var _ repo.Transactor = (*memDB)(nil)

// ---- seeding ---------------------------------------------------------------

const owner = "user-a"

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func tod(s string) domain.TimeOfDay {
	t, err := domain.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// seedTrip stores a trip owned by ownerID with its generated days.
func (m *memDB) seedTrip(ownerID string, start, end time.Time) (domain.Trip, []domain.TripDay) {
	trip := domain.Trip{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Destination: "Lisbon",
		StartDate:   start,
		EndDate:     end,
	}
	m.trips[trip.ID] = trip
	days, _ := memDays{m}.CreateBatch(context.Background(), trip.ID, domain.GenerateDays(trip))
	return trip, days
}

func (m *memDB) seedPlace(tripID uuid.UUID, name string) domain.Place {
	p, _ := memPlaces{m}.Create(context.Background(), domain.Place{TripID: tripID, Name: name})
	return p
}

func (m *memDB) seedItem(day domain.TripDay, start, end string) domain.TimelineItem {
	it, _ := memItems{m}.Create(context.Background(), domain.TimelineItem{DayID: day.ID, Start: tod(start), End: tod(end)})
	return it
}

// ---- trips -----------------------------------------------------------------

type memTrips struct{ m *memDB }

func (r memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	if err := r.m.err("Trips.Create"); err != nil {
		return domain.Trip{}, err
	}
	t.ID = uuid.New()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	r.m.trips[t.ID] = t
	return t, nil
}

func (r memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	t, ok := r.m.trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("mem: %w", domain.ErrNotFound)
	}
	return t, nil
}

func (r memTrips) ListByOwner(_ context.Context, ownerID string, p domain.PageRequest) ([]domain.Trip, int64, error) {
	var all []domain.Trip
	for _, t := range r.m.trips {
		if t.OwnerID == ownerID {
			all = append(all, t)
		}
	}
	slices.SortFunc(all, func(a, b domain.Trip) int { return b.StartDate.Compare(a.StartDate) })
	total := int64(len(all))
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return all[lo:hi], total, nil
}

func (r memTrips) Update(_ context.Context, t domain.Trip) (domain.Trip, error) {
	cur, ok := r.m.trips[t.ID]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	cur.Title, cur.Destination, cur.ImageURL, cur.Description = t.Title, t.Destination, t.ImageURL, t.Description
	cur.IsDomestic = t.IsDomestic
	r.m.trips[t.ID] = cur
	return cur, nil
}

func (r memTrips) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.m.trips[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.trips, id)
	for dayID, d := range r.m.days {
		if d.TripID == id {
			delete(r.m.days, dayID)
		}
	}
	for itemID, it := range r.m.items {
		if it.TripID == id {
			delete(r.m.items, itemID)
		}
	}
	for placeID, p := range r.m.places {
		if p.TripID == id {
			delete(r.m.places, placeID)
		}
	}
	return nil
}

// ---- days ------------------------------------------------------------------

type memDays struct{ m *memDB }

func (r memDays) CreateBatch(_ context.Context, tripID uuid.UUID, days []domain.TripDay) ([]domain.TripDay, error) {
	if err := r.m.err("Days.CreateBatch"); err != nil {
		return nil, err
	}
	out := make([]domain.TripDay, 0, len(days))
	for _, d := range days {
		d.ID = uuid.New()
		d.TripID = tripID
		r.m.days[d.ID] = d
		out = append(out, d)
	}
	return out, nil
}

func (r memDays) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	out := []domain.TripDay{}
	for _, d := range r.m.days {
		if d.TripID == tripID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.TripDay) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (r memDays) LockByTripAndDate(_ context.Context, tripID uuid.UUID, date time.Time) (domain.TripDay, error) {
	for _, d := range r.m.days {
		if d.TripID == tripID && d.Date.Equal(date) {
			return d, nil
		}
	}
	return domain.TripDay{}, fmt.Errorf("mem: %w", domain.ErrNotFound)
}

func (r memDays) LockByIDs(_ context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.TripDay, error) {
	out := []domain.TripDay{}
	for _, id := range ids {
		if d, ok := r.m.days[id]; ok && d.TripID == tripID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memDays) UpdateAttributes(_ context.Context, day domain.TripDay) (domain.TripDay, error) {
	if err := r.m.err("Days.UpdateAttributes"); err != nil {
		return domain.TripDay{}, err
	}
	cur, ok := r.m.days[day.ID]
	if !ok {
		return domain.TripDay{}, domain.ErrNotFound
	}
	cur.ThemeTitle, cur.DayNote, cur.BudgetPlanned, cur.BudgetSpent = day.ThemeTitle, day.DayNote, day.BudgetPlanned, day.BudgetSpent
	r.m.days[day.ID] = cur
	return cur, nil
}

// ---- places ----------------------------------------------------------------

type memPlaces struct{ m *memDB }

func (r memPlaces) Create(_ context.Context, p domain.Place) (domain.Place, error) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.m.places[p.ID] = p
	return p, nil
}

func (r memPlaces) GetByID(_ context.Context, tripID, placeID uuid.UUID) (domain.Place, error) {
	p, ok := r.m.places[placeID]
	if !ok || p.TripID != tripID {
		return domain.Place{}, fmt.Errorf("mem: %w", domain.ErrNotFound)
	}
	return p, nil
}

func (r memPlaces) ListByTrip(_ context.Context, tripID uuid.UUID, p domain.PageRequest) ([]domain.Place, int64, error) {
	var all []domain.Place
	for _, pl := range r.m.places {
		if pl.TripID == tripID {
			all = append(all, pl)
		}
	}
	slices.SortFunc(all, func(a, b domain.Place) int { return cmp.Compare(a.Name, b.Name) })
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return all[lo:hi], int64(len(all)), nil
}

func (r memPlaces) ListByIDs(_ context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Place, error) {
	if err := r.m.err("Places.ListByIDs"); err != nil {
		return nil, err
	}
	out := []domain.Place{}
	for _, id := range ids {
		if p, ok := r.m.places[id]; ok && p.TripID == tripID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPlaces) Update(_ context.Context, p domain.Place) (domain.Place, error) {
	cur, ok := r.m.places[p.ID]
	if !ok || cur.TripID != p.TripID {
		return domain.Place{}, domain.ErrNotFound
	}
	r.m.places[p.ID] = p
	return p, nil
}

func (r memPlaces) Delete(_ context.Context, tripID, placeID uuid.UUID) error {
	p, ok := r.m.places[placeID]
	if !ok || p.TripID != tripID {
		return fmt.Errorf("mem: %w", domain.ErrNotFound)
	}
	delete(r.m.places, placeID)
	for id, it := range r.m.items {
		if it.PlaceID != nil && *it.PlaceID == placeID {
			it.PlaceID = nil
			r.m.items[id] = it
		}
	}
	return nil
}

// ---- items -----------------------------------------------------------------

type memItems struct{ m *memDB }

func (r memItems) withDay(it domain.TimelineItem) domain.TimelineItem {
	d := r.m.days[it.DayID]
	it.TripID, it.DayDate = d.TripID, d.Date
	return it
}

func (r memItems) Create(_ context.Context, it domain.TimelineItem) (domain.TimelineItem, error) {
	if err := r.m.err("Items.Create"); err != nil {
		return domain.TimelineItem{}, err
	}
	it.ID = uuid.New()
	it = r.withDay(it)
	r.m.items[it.ID] = it
	return it, nil
}

func (r memItems) LockByID(_ context.Context, id uuid.UUID) (domain.TimelineItem, error) {
	it, ok := r.m.items[id]
	if !ok {
		return domain.TimelineItem{}, fmt.Errorf("mem: %w", domain.ErrNotFound)
	}
	return it, nil
}

func (r memItems) ListByDayIDs(_ context.Context, dayIDs []uuid.UUID) ([]domain.TimelineItem, error) {
	out := []domain.TimelineItem{}
	for _, it := range r.m.items {
		if slices.Contains(dayIDs, it.DayID) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b domain.TimelineItem) int {
		if c := a.DayDate.Compare(b.DayDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Start, b.Start)
	})
	return out, nil
}

func (r memItems) HasOverlap(_ context.Context, dayID uuid.UUID, iv domain.Interval, exclude *uuid.UUID) (bool, error) {
	for _, it := range r.m.items {
		if it.DayID != dayID || (exclude != nil && it.ID == *exclude) {
			continue
		}
		if it.Start < iv.End && it.End > iv.Start {
			return true, nil
		}
	}
	return false, nil
}

func (r memItems) Update(_ context.Context, it domain.TimelineItem) (domain.TimelineItem, error) {
	if _, ok := r.m.items[it.ID]; !ok {
		return domain.TimelineItem{}, domain.ErrNotFound
	}
	it = r.withDay(it)
	r.m.items[it.ID] = it
	return it, nil
}

func (r memItems) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.items, id)
	return nil
}

// compile-time checks: the in-memory repos must satisfy the repo interfaces.
var (
	_ repo.TripRepo         = memTrips{}
	_ repo.TripDayRepo      = memDays{}
	_ repo.PlaceRepo        = memPlaces{}
	_ repo.TimelineItemRepo = memItems{}
)
