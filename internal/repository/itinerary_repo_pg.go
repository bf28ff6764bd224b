package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkraev/airsched/internal/domain"
)

type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *domain.Itinerary) error
	GetByID(ctx context.Context, id int64) (*domain.Itinerary, error)
	List(ctx context.Context) ([]domain.Itinerary, error)
	Update(ctx context.Context, itinerary *domain.Itinerary) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type PGItineraryRepository struct {
	db *pgxpool.Pool
}

func NewItineraryRepository(db *pgxpool.Pool) ItineraryRepository {
	return &PGItineraryRepository{db: db}
}

func (r *PGItineraryRepository) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	err := r.db.QueryRow(ctx, `INSERT INTO itineraries (code, origin_airport_id, destination_airport_id, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		itinerary.Code, itinerary.OriginAirportID, itinerary.DestinationAirportID, itinerary.DurationMinutes).
		Scan(&itinerary.ID, &itinerary.CreatedAt, &itinerary.UpdatedAt)
	switch pgErrCode(err) {
	case pgUniqueViolation:
		return ErrConflict
	case pgForeignKeyViolation:
		return ErrNotFound
	}
	return err
}

func (r *PGItineraryRepository) GetByID(ctx context.Context, id int64) (*domain.Itinerary, error) {
	row := r.db.QueryRow(ctx, `SELECT id, code, origin_airport_id, destination_airport_id, duration_minutes, created_at, updated_at FROM itineraries WHERE id=$1`, id)
	var it domain.Itinerary
	if err := row.Scan(&it.ID, &it.Code, &it.OriginAirportID, &it.DestinationAirportID, &it.DurationMinutes, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *PGItineraryRepository) List(ctx context.Context) ([]domain.Itinerary, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, origin_airport_id, destination_airport_id, duration_minutes, created_at, updated_at FROM itineraries ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	itineraries := make([]domain.Itinerary, 0)
	for rows.Next() {
		var it domain.Itinerary
		if err := rows.Scan(&it.ID, &it.Code, &it.OriginAirportID, &it.DestinationAirportID, &it.DurationMinutes, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		itineraries = append(itineraries, it)
	}
	return itineraries, rows.Err()
}

func (r *PGItineraryRepository) Update(ctx context.Context, itinerary *domain.Itinerary) error {
	err := r.db.QueryRow(ctx, `UPDATE itineraries SET code=$1, origin_airport_id=$2, destination_airport_id=$3, duration_minutes=$4, updated_at=now()
		WHERE id=$5
		RETURNING created_at, updated_at`,
		itinerary.Code, itinerary.OriginAirportID, itinerary.DestinationAirportID, itinerary.DurationMinutes, itinerary.ID).
		Scan(&itinerary.CreatedAt, &itinerary.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	switch pgErrCode(err) {
	case pgUniqueViolation:
		return ErrConflict
	case pgForeignKeyViolation:
		return ErrNotFound
	}
	return err
}

func (r *PGItineraryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM itineraries WHERE id=$1`, id)
	if pgErrCode(err) == pgForeignKeyViolation {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGItineraryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM itineraries WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ ItineraryRepository = (*PGItineraryRepository)(nil)
