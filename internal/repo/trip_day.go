package repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripdiary/backend/internal/domain"
)

// TripDayRepo defines the persistence operations for TripDays.
// Days are only ever inserted in bulk for a new trip and never deleted
// individually; they disappear with their trip.
type TripDayRepo interface {
	// CreateBatch inserts the generated day set of a trip in one statement and
	// returns the persisted days ordered by date.
	CreateBatch(ctx context.Context, tripID uuid.UUID, days []domain.TripDay) ([]domain.TripDay, error)

	// ListByTrip returns all days of a trip ordered by date ascending.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error)

	// LockByTripAndDate returns the trip's day on the given date with a row
	// lock held until the surrounding transaction ends.
	// Returns domain.ErrNotFound if the date falls outside the trip. Writers that check for overlapping items
	// take this lock first so checks on the same day run one at a time.
	// The lock is FOR NO KEY UPDATE, so foreign-key checks from item inserts
	// on the same day are not blocked by it.
	LockByTripAndDate(ctx context.Context, tripID uuid.UUID, date time.Time) (domain.TripDay, error)

	// LockByIDs returns, with row locks, the days among ids that belong to tripID.
	// Ids of other trips or of missing days are silently absent from the result.
	LockByIDs(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.TripDay, error)

	// UpdateAttributes overwrites theme, note, and budget fields of a day.
	// Returns domain.ErrNotFound if the day does not exist.
	UpdateAttributes(ctx context.Context, day domain.TripDay) (domain.TripDay, error)
}

// pgTripDayRepo is the Postgres implementation of TripDayRepo.
type pgTripDayRepo struct {
	db db
}

// NewTripDayRepo constructs a TripDayRepo backed by the provided db connection.
func NewTripDayRepo(db db) TripDayRepo {
	return &pgTripDayRepo{db: db}
}

const tripDayColumns = `id, trip_id, day_date, day_index, theme_title, day_note, budget_planned, budget_spent, created_at, updated_at`

// CreateBatch unnests parallel date/index arrays into one INSERT.
func (r *pgTripDayRepo) CreateBatch(ctx context.Context, tripID uuid.UUID, days []domain.TripDay) ([]domain.TripDay, error) {
	if len(days) == 0 {
		return []domain.TripDay{}, nil
	}

	const q = `
		INSERT INTO trip_days (trip_id, day_date, day_index)
		SELECT @trip_id, d.day_date, d.day_index
		FROM unnest(@dates::date[], @indexes::int[]) AS d(day_date, day_index)
		RETURNING ` + tripDayColumns

	dates := make([]time.Time, len(days))
	indexes := make([]int32, len(days))
	for i, d := range days {
		dates[i] = d.Date
		indexes[i] = int32(d.DayIndex)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"dates":   dates,
		"indexes": indexes,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.CreateBatch: %w", mapPgError(err))
	}
	created, err := collectTripDays(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.CreateBatch: %w", mapPgError(err))
	}
	// RETURNING gives no ordering guarantee.
	slices.SortFunc(created, func(a, b domain.TripDay) int { return a.Date.Compare(b.Date) })
	return created, nil
}

// ListByTrip returns all days of a trip ordered by date.
func (r *pgTripDayRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	const q = `
		SELECT ` + tripDayColumns + `
		FROM trip_days
		WHERE trip_id = @trip_id
		ORDER BY day_date`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.ListByTrip: %w", err)
	}
	days, err := collectTripDays(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.ListByTrip: %w", err)
	}
	return days, nil
}

// LockByTripAndDate looks a day up by its natural key and locks the row.
func (r *pgTripDayRepo) LockByTripAndDate(ctx context.Context, tripID uuid.UUID, date time.Time) (domain.TripDay, error) {
	const q = `
		SELECT ` + tripDayColumns + `
		FROM trip_days
		WHERE trip_id = @trip_id AND day_date = @day_date
		FOR NO KEY UPDATE`

	day, err := scanTripDay(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "day_date": date}))
	if err != nil {
		return domain.TripDay{}, fmt.Errorf("repo.TripDayRepo.LockByTripAndDate: %w", mapPgError(err))
	}
	return day, nil
}

// LockByIDs locks the trip's days among ids, in id order so two bulk
// updates over overlapping sets cannot deadlock each other.
func (r *pgTripDayRepo) LockByIDs(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.TripDay, error) {
	const q = `
		SELECT ` + tripDayColumns + `
		FROM trip_days
		WHERE trip_id = @trip_id AND id = ANY(@ids::uuid[])
		ORDER BY id
		FOR NO KEY UPDATE`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "ids": uuidStrings(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.LockByIDs: %w", err)
	}
	days, err := collectTripDays(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.TripDayRepo.LockByIDs: %w", err)
	}
	return days, nil
}

// UpdateAttributes overwrites the descriptive and budget columns of a day.
func (r *pgTripDayRepo) UpdateAttributes(ctx context.Context, day domain.TripDay) (domain.TripDay, error) {
	const q = `
		UPDATE trip_days
		SET theme_title    = @theme_title,
		    day_note       = @day_note,
		    budget_planned = @budget_planned,
		    budget_spent   = @budget_spent,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + tripDayColumns

	args := pgx.NamedArgs{
		"id":             day.ID,
		"theme_title":    day.ThemeTitle,
		"day_note":       day.DayNote,
		"budget_planned": day.BudgetPlanned,
		"budget_spent":   day.BudgetSpent,
	}

	updated, err := scanTripDay(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TripDay{}, fmt.Errorf("repo.TripDayRepo.UpdateAttributes: %w", mapPgError(err))
	}
	return updated, nil
}

func collectTripDays(rows pgx.Rows) ([]domain.TripDay, error) {
	defer rows.Close()

	days := []domain.TripDay{}
	for rows.Next() {
		d, err := scanTripDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return days, nil
}

// scanTripDay maps a single database row into a domain.TripDay.
// Nullable text and integer columns scan straight into pointer fields.
func scanTripDay(s scanner) (domain.TripDay, error) {
	var (
		d      domain.TripDay
		id     pgtype.UUID
		tripID pgtype.UUID
		date   pgtype.Date
	)

	err := s.Scan(&id, &tripID, &date, &d.DayIndex, &d.ThemeTitle, &d.DayNote,
		&d.BudgetPlanned, &d.BudgetSpent, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.TripDay{}, err
	}

	d.ID = uuid.UUID(id.Bytes)
	d.TripID = uuid.UUID(tripID.Bytes)
	d.Date = date.Time
	return d, nil
}
