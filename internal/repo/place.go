package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripdiary/backend/internal/domain"
)

// PlaceRepo defines the persistence operations for Places.
// All single-row operations are scoped by tripID to enforce ownership.
type PlaceRepo interface {
	// Create inserts a new place and returns the persisted record.
	Create(ctx context.Context, place domain.Place) (domain.Place, error)

	// GetByID retrieves a single place by its UUID, scoped to the given tripID.
	// Returns domain.ErrNotFound if no place with that ID exists under that trip.
	GetByID(ctx context.Context, tripID, placeID uuid.UUID) (domain.Place, error)

	// ListByTrip returns one page of a trip's places ordered by creation time,
	// and the trip's total place count.
	ListByTrip(ctx context.Context, tripID uuid.UUID, p domain.PageRequest) ([]domain.Place, int64, error)

	// ListByIDs returns the places among ids that belong to tripID, in one query.
	// Ids of other trips are silently absent from the result.
	ListByIDs(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Place, error)

	// Update overwrites the mutable fields of a place, scoped to its TripID.
	// Returns domain.ErrNotFound if no place with that ID exists under that trip.
	Update(ctx context.Context, place domain.Place) (domain.Place, error)

	// Delete removes a place, scoped to the given tripID. Timeline items that
	// referenced it keep their slot with no place attached.
	// Returns domain.ErrNotFound if no place with that ID exists under that trip.
	Delete(ctx context.Context, tripID, placeID uuid.UUID) error
}

// pgPlaceRepo is the Postgres implementation of PlaceRepo.
type pgPlaceRepo struct {
	db db
}

// NewPlaceRepo constructs a PlaceRepo backed by the provided db connection.
func NewPlaceRepo(db db) PlaceRepo {
	return &pgPlaceRepo{db: db}
}

const placeColumns = `id, trip_id, name, description, category, cover_image_url, created_at, updated_at`

func (r *pgPlaceRepo) Create(ctx context.Context, place domain.Place) (domain.Place, error) {
	const q = `
		INSERT INTO places (trip_id, name, description, category, cover_image_url)
		VALUES (@trip_id, @name, @description, @category, @cover_image_url)
		RETURNING ` + placeColumns

	args := pgx.NamedArgs{
		"trip_id":         place.TripID,
		"name":            place.Name,
		"description":     place.Description,
		"category":        place.Category,
		"cover_image_url": place.CoverImageURL,
	}

	result, err := scanPlace(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Create: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgPlaceRepo) GetByID(ctx context.Context, tripID, placeID uuid.UUID) (domain.Place, error) {
	const q = `
		SELECT ` + placeColumns + `
		FROM places
		WHERE id = @id AND trip_id = @trip_id`

	result, err := scanPlace(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": placeID, "trip_id": tripID}))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.GetByID: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgPlaceRepo) ListByTrip(ctx context.Context, tripID uuid.UUID, p domain.PageRequest) ([]domain.Place, int64, error) {
	const countQ = `SELECT count(*) FROM places WHERE trip_id = @trip_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"trip_id": tripID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.PlaceRepo.ListByTrip: count: %w", err)
	}

	const q = `
		SELECT ` + placeColumns + `
		FROM places
		WHERE trip_id = @trip_id
		ORDER BY created_at, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.PlaceRepo.ListByTrip: %w", err)
	}
	places, err := collectPlaces(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.PlaceRepo.ListByTrip: %w", err)
	}
	return places, total, nil
}

func (r *pgPlaceRepo) ListByIDs(ctx context.Context, tripID uuid.UUID, ids []uuid.UUID) ([]domain.Place, error) {
	if len(ids) == 0 {
		return []domain.Place{}, nil
	}

	const q = `
		SELECT ` + placeColumns + `
		FROM places
		WHERE trip_id = @trip_id AND id = ANY(@ids::uuid[])`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "ids": uuidStrings(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.ListByIDs: %w", err)
	}
	places, err := collectPlaces(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.ListByIDs: %w", err)
	}
	return places, nil
}

func (r *pgPlaceRepo) Update(ctx context.Context, place domain.Place) (domain.Place, error) {
	const q = `
		UPDATE places
		SET name            = @name,
		    description     = @description,
		    category        = @category,
		    cover_image_url = @cover_image_url,
		    updated_at      = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + placeColumns

	args := pgx.NamedArgs{
		"id":              place.ID,
		"trip_id":         place.TripID,
		"name":            place.Name,
		"description":     place.Description,
		"category":        place.Category,
		"cover_image_url": place.CoverImageURL,
	}

	result, err := scanPlace(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Update: %w", mapPgError(err))
	}
	return result, nil
}

func (r *pgPlaceRepo) Delete(ctx context.Context, tripID, placeID uuid.UUID) error {
	const q = `DELETE FROM places WHERE id = @id AND trip_id = @trip_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": placeID, "trip_id": tripID})
	if err != nil {
		return fmt.Errorf("repo.PlaceRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PlaceRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func collectPlaces(rows pgx.Rows) ([]domain.Place, error) {
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return places, nil
}

// scanPlace maps a single database row into a domain.Place.
func scanPlace(s scanner) (domain.Place, error) {
	var (
		p      domain.Place
		id     pgtype.UUID
		tripID pgtype.UUID
	)
	err := s.Scan(&id, &tripID, &p.Name, &p.Description, &p.Category, &p.CoverImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Place{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.TripID = uuid.UUID(tripID.Bytes)
	return p, nil
}
