package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripdiary/backend/internal/domain"
)

// TimelineItemRepo defines the persistence operations for timeline items.
// Reads join the owning day so every returned item carries its TripID and
// DayDate, which is what ownership checks walk back through.
type TimelineItemRepo interface {
	// Create inserts a new item and returns the persisted record.
	Create(ctx context.Context, item domain.TimelineItem) (domain.TimelineItem, error)

	// LockByID retrieves an item by primary key with a row lock on the item
	// held until the surrounding transaction ends.
	// Returns domain.ErrNotFound if no item with that ID exists.
	LockByID(ctx context.Context, id uuid.UUID) (domain.TimelineItem, error)

	// ListByDayIDs returns all items of the given days in one query,
	// ordered by day then start time.
	ListByDayIDs(ctx context.Context, dayIDs []uuid.UUID) ([]domain.TimelineItem, error)

	// HasOverlap reports whether any item of dayID intersects iv under
	// half-open semantics. When exclude is non-nil that item is ignored,
	// so an item can be saved again over its own slot.
	HasOverlap(ctx context.Context, dayID uuid.UUID, iv domain.Interval, exclude *uuid.UUID) (bool, error)

	// Update overwrites day, times, and place of an item in one statement.
	// Returns domain.ErrNotFound if no item with that ID exists.
	Update(ctx context.Context, item domain.TimelineItem) (domain.TimelineItem, error)

	// Delete removes an item by ID.
	// Returns domain.ErrNotFound if no item with that ID exists.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTimelineItemRepo is the Postgres implementation of TimelineItemRepo.
type pgTimelineItemRepo struct {
	db db
}

// NewTimelineItemRepo constructs a TimelineItemRepo backed by the provided db connection.
func NewTimelineItemRepo(db db) TimelineItemRepo {
	return &pgTimelineItemRepo{db: db}
}

// itemSelect yields the item columns followed by the owning day's trip and date.
const itemSelect = `
	SELECT i.id, i.day_id, d.trip_id, d.day_date, i.place_id, i.start_time, i.end_time, i.created_at, i.updated_at
	FROM timeline_items i
	JOIN trip_days d ON d.id = i.day_id`

func (r *pgTimelineItemRepo) Create(ctx context.Context, item domain.TimelineItem) (domain.TimelineItem, error) {
	const q = `
		WITH i AS (
			INSERT INTO timeline_items (day_id, place_id, start_time, end_time)
			VALUES (@day_id, @place_id, @start_time, @end_time)
			RETURNING *
		)
		SELECT i.id, i.day_id, d.trip_id, d.day_date, i.place_id, i.start_time, i.end_time, i.created_at, i.updated_at
		FROM i
		JOIN trip_days d ON d.id = i.day_id`

	args := pgx.NamedArgs{
		"day_id":     item.DayID,
		"place_id":   nullableUUID(item.PlaceID),
		"start_time": pgTime(item.Start),
		"end_time":   pgTime(item.End),
	}

	result, err := scanTimelineItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TimelineItem{}, fmt.Errorf("repo.TimelineItemRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTimelineItemRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.TimelineItem, error) {
	const q = itemSelect + ` WHERE i.id = @id FOR UPDATE OF i`

	result, err := scanTimelineItem(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.TimelineItem{}, fmt.Errorf("repo.TimelineItemRepo.LockByID: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTimelineItemRepo) ListByDayIDs(ctx context.Context, dayIDs []uuid.UUID) ([]domain.TimelineItem, error) {
	if len(dayIDs) == 0 {
		return []domain.TimelineItem{}, nil
	}

	const q = itemSelect + `
		WHERE i.day_id = ANY(@day_ids::uuid[])
		ORDER BY d.day_date, i.start_time`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"day_ids": uuidStrings(dayIDs)})
	if err != nil {
		return nil, fmt.Errorf("repo.TimelineItemRepo.ListByDayIDs: %w", err)
	}
	defer rows.Close()

	items := []domain.TimelineItem{}
	for rows.Next() {
		it, err := scanTimelineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TimelineItemRepo.ListByDayIDs: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TimelineItemRepo.ListByDayIDs: rows: %w", err)
	}
	return items, nil
}

// HasOverlap looks for an existing item with start < iv.End AND end > iv.Start.
func (r *pgTimelineItemRepo) HasOverlap(ctx context.Context, dayID uuid.UUID, iv domain.Interval, exclude *uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM timeline_items
			WHERE day_id = @day_id
			  AND start_time < @end_time
			  AND end_time > @start_time
			  AND (@exclude_id::uuid IS NULL OR id <> @exclude_id::uuid)
		)`

	var exists bool
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"day_id":     dayID,
		"start_time": pgTime(iv.Start),
		"end_time":   pgTime(iv.End),
		"exclude_id": nullableUUID(exclude),
	}).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.TimelineItemRepo.HasOverlap: %w", err)
	}
	return exists, nil
}

func (r *pgTimelineItemRepo) Update(ctx context.Context, item domain.TimelineItem) (domain.TimelineItem, error) {
	const q = `
		WITH i AS (
			UPDATE timeline_items
			SET day_id     = @day_id,
			    place_id   = @place_id,
			    start_time = @start_time,
			    end_time   = @end_time,
			    updated_at = now()
			WHERE id = @id
			RETURNING *
		)
		SELECT i.id, i.day_id, d.trip_id, d.day_date, i.place_id, i.start_time, i.end_time, i.created_at, i.updated_at
		FROM i
		JOIN trip_days d ON d.id = i.day_id`

	args := pgx.NamedArgs{
		"id":         item.ID,
		"day_id":     item.DayID,
		"place_id":   nullableUUID(item.PlaceID),
		"start_time": pgTime(item.Start),
		"end_time":   pgTime(item.End),
	}

	result, err := scanTimelineItem(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TimelineItem{}, fmt.Errorf("repo.TimelineItemRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgTimelineItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM timeline_items WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TimelineItemRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TimelineItemRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTimelineItem maps a joined item row into a domain.TimelineItem.
func scanTimelineItem(s scanner) (domain.TimelineItem, error) {
	var (
		it        domain.TimelineItem
		id        pgtype.UUID
		dayID     pgtype.UUID
		tripID    pgtype.UUID
		dayDate   pgtype.Date
		placeID   pgtype.UUID
		startTime pgtype.Time
		endTime   pgtype.Time
	)

	err := s.Scan(&id, &dayID, &tripID, &dayDate, &placeID, &startTime, &endTime, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return domain.TimelineItem{}, err
	}

	it.ID = uuid.UUID(id.Bytes)
	it.DayID = uuid.UUID(dayID.Bytes)
	it.TripID = uuid.UUID(tripID.Bytes)
	it.DayDate = dayDate.Time
	it.PlaceID = uuidPtr(placeID)
	it.Start = timeOfDay(startTime)
	it.End = timeOfDay(endTime)
	return it, nil
}
