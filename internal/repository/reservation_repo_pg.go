package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkraev/airsched/internal/domain"
)

type ReservationRepository interface {
	// CreateAdmitted inserts the reservation only while the flight still
	// has a free seat. The seat count and the insert run in one
	// transaction that locks the flight row, so two concurrent attempts
	// for the same flight cannot both take the last seat. Returns
	// ErrFlightFull when capacity is exhausted and ErrNotFound when the
	// flight does not exist.
	CreateAdmitted(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Reservation, error)
	CountByFlight(ctx context.Context, flightID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) CreateAdmitted(ctx context.Context, reservation *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE OF f serializes admissions per flight; attempts against
	// other flights are unaffected.
	var capacity int
	err = tx.QueryRow(ctx, `SELECT a.capacity
		FROM flights f
		JOIN airplanes a ON a.id = f.airplane_id
		WHERE f.id=$1
		FOR UPDATE OF f`, reservation.FlightID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	var taken int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE flight_id=$1`, reservation.FlightID).Scan(&taken); err != nil {
		return err
	}
	if taken >= capacity {
		return ErrFlightFull
	}

	if err := tx.QueryRow(ctx, `INSERT INTO reservations (passenger_name, flight_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, reservation.PassengerName, reservation.FlightID).
		Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT id, passenger_name, flight_id, created_at, updated_at FROM reservations WHERE id=$1`, id)
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.PassengerName, &res.FlightID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGReservationRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT id, passenger_name, flight_id, created_at, updated_at FROM reservations WHERE flight_id=$1 ORDER BY id`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.PassengerName, &res.FlightID, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *PGReservationRepository) CountByFlight(ctx context.Context, flightID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE flight_id=$1`, flightID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGReservationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
