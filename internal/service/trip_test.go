package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/repo"
	"github.com/tripdiary/backend/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByOwner func(ctx context.Context, ownerID string, p domain.PageRequest) ([]domain.Trip, int64, error)
	update      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListByOwner(ctx context.Context, ownerID string, p domain.PageRequest) ([]domain.Trip, int64, error) {
	return m.listByOwner(ctx, ownerID, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

// ---- helpers ---------------------------------------------------------------

const defaultImage = "https://img.example.com/default.jpg"

func validTrip() domain.Trip {
	return domain.Trip{
		Title:       "Summer in Portugal",
		Destination: "Lisbon",
		StartDate:   date(2025, 6, 1),
		EndDate:     date(2025, 6, 5),
	}
}

func newTripService() (*service.TripService, *memDB) {
	db := newMemDB()
	return service.NewTripService(db, db.repos(), defaultImage), db
}

// ---- Create ----------------------------------------------------------------

func TestTripService_Create_GeneratesDays(t *testing.T) {
	svc, db := newTripService()

	got, err := svc.Create(context.Background(), owner, validTrip())

	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, defaultImage, got.ImageURL)

	days, err := db.repos().Days.ListByTrip(context.Background(), got.ID)
	require.NoError(t, err)
	require.Len(t, days, 5)
	for i, d := range days {
		assert.Equal(t, i+1, d.DayIndex)
		assert.Equal(t, date(2025, 6, 1+i), d.Date)
	}
}

func TestTripService_Create_SingleDay(t *testing.T) {
	svc, db := newTripService()
	trip := validTrip()
	trip.EndDate = trip.StartDate

	got, err := svc.Create(context.Background(), owner, trip)

	require.NoError(t, err)
	days, _ := db.repos().Days.ListByTrip(context.Background(), got.ID)
	assert.Len(t, days, 1)
}

func TestTripService_Create_NormalizesToDates(t *testing.T) {
	svc, db := newTripService()
	trip := validTrip()
	trip.StartDate = time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)
	trip.EndDate = time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)

	got, err := svc.Create(context.Background(), owner, trip)

	require.NoError(t, err)
	assert.Equal(t, date(2025, 6, 1), got.StartDate)
	days, _ := db.repos().Days.ListByTrip(context.Background(), got.ID)
	assert.Len(t, days, 2)
}

func TestTripService_Create_KeepsImage(t *testing.T) {
	svc, _ := newTripService()
	trip := validTrip()
	trip.ImageURL = "https://img.example.com/lisbon.jpg"

	got, err := svc.Create(context.Background(), owner, trip)

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/lisbon.jpg", got.ImageURL)
}

func TestTripService_Create_Invalid(t *testing.T) {
	cases := map[string]func(*domain.Trip){
		"blank destination": func(tr *domain.Trip) { tr.Destination = "   " },
		"long destination":  func(tr *domain.Trip) { tr.Destination = string(make([]rune, 101)) },
		"long title":        func(tr *domain.Trip) { tr.Title = strings.Repeat("x", 51) },
		"missing start":     func(tr *domain.Trip) { tr.StartDate = time.Time{} },
		"end before start":  func(tr *domain.Trip) { tr.EndDate = tr.StartDate.AddDate(0, 0, -1) },
		"too long":          func(tr *domain.Trip) { tr.EndDate = tr.StartDate.AddDate(0, 0, domain.MaxTripDays) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, db := newTripService()
			trip := validTrip()
			mutate(&trip)

			_, err := svc.Create(context.Background(), owner, trip)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, db.trips)
		})
	}
}

func TestTripService_Create_DayGenerationFailureRollsBack(t *testing.T) {
	svc, db := newTripService()
	repoErr := errors.New("db exploded")
	db.fail["Days.CreateBatch"] = repoErr

	_, err := svc.Create(context.Background(), owner, validTrip())

	assert.ErrorIs(t, err, repoErr)
	assert.Empty(t, db.trips, "trip must not exist without its days")
	assert.Empty(t, db.days)
}

// ---- GetByID / List --------------------------------------------------------

func TestTripService_GetByID(t *testing.T) {
	svc, db := newTripService()
	trip, _ := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))

	got, err := svc.GetByID(context.Background(), trip.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)

	_, err = svc.GetByID(context.Background(), trip.ID, "user-b")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetByID(context.Background(), uuid.New(), owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_List_OnlyOwnTrips(t *testing.T) {
	svc, db := newTripService()
	older, _ := db.seedTrip(owner, date(2025, 1, 1), date(2025, 1, 2))
	newer, _ := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))
	db.seedTrip("user-b", date(2025, 3, 1), date(2025, 3, 2))

	got, err := svc.List(context.Background(), owner, domain.NewPageRequest(nil, nil))

	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, newer.ID, got.Items[0].ID)
	assert.Equal(t, older.ID, got.Items[1].ID)
}

func TestTripService_List_EmptyIsNonNil(t *testing.T) {
	r := &mockTripRepo{
		listByOwner: func(_ context.Context, _ string, _ domain.PageRequest) ([]domain.Trip, int64, error) {
			return nil, 0, nil
		},
	}
	svc := service.NewTripService(newMemDB(), repo.Repos{Trips: r}, defaultImage)

	got, err := svc.List(context.Background(), owner, domain.NewPageRequest(nil, nil))

	require.NoError(t, err)
	assert.NotNil(t, got.Items)
}

func TestTripService_GetByID_RepoError(t *testing.T) {
	repoErr := errors.New("db exploded")
	r := &mockTripRepo{
		getByID: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, repoErr
		},
	}
	svc := service.NewTripService(newMemDB(), repo.Repos{Trips: r}, defaultImage)

	_, err := svc.GetByID(context.Background(), uuid.New(), owner)

	// The service should propagate repo errors unchanged.
	assert.ErrorIs(t, err, repoErr)
}

// ---- Update / Delete -------------------------------------------------------

func TestTripService_Update_AppliesPatch(t *testing.T) {
	svc, db := newTripService()
	trip, _ := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))

	got, err := svc.Update(context.Background(), trip.ID, owner, domain.TripPatch{Title: ptr("Renamed")})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Lisbon", got.Destination)
}

func TestTripService_DomesticFlag(t *testing.T) {
	svc, db := newTripService()
	ctx := context.Background()
	in := validTrip()
	in.IsDomestic = true

	created, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	assert.True(t, db.trips[created.ID].IsDomestic)

	updated, err := svc.Update(ctx, created.ID, owner, domain.TripPatch{IsDomestic: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsDomestic)

	updated, err = svc.Update(ctx, created.ID, owner, domain.TripPatch{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.False(t, updated.IsDomestic, "an omitted flag keeps the stored value")
}

func TestTripService_Update_RejectsBlankDestination(t *testing.T) {
	svc, db := newTripService()
	trip, _ := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))

	_, err := svc.Update(context.Background(), trip.ID, owner, domain.TripPatch{Destination: ptr(" ")})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Lisbon", db.trips[trip.ID].Destination)
}

func TestTripService_Update_Forbidden(t *testing.T) {
	svc, db := newTripService()
	trip, _ := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))

	_, err := svc.Update(context.Background(), trip.ID, "user-b", domain.TripPatch{Title: ptr("Mine")})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, db.trips[trip.ID].Title)
}

func TestTripService_Delete(t *testing.T) {
	svc, db := newTripService()
	trip, days := db.seedTrip(owner, date(2025, 6, 1), date(2025, 6, 2))
	db.seedItem(days[0], "09:00", "10:00")

	err := svc.Delete(context.Background(), trip.ID, "user-b")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Len(t, db.trips, 1)

	err = svc.Delete(context.Background(), trip.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, db.trips)
	assert.Empty(t, db.days)
	assert.Empty(t, db.items)
}
