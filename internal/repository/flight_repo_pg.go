package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkraev/airsched/internal/domain"
)

// FlightFilter narrows List results. Zero values mean "no constraint".
type FlightFilter struct {
	ItineraryID     int64
	DepartureAfter  time.Time
	DepartureBefore time.Time
}

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// GetContext hydrates the flight together with its itinerary, both
	// airports and the airplane in a single query. Returns ErrNotFound
	// when the flight row does not exist.
	GetContext(ctx context.Context, id int64) (*domain.FlightContext, error)
	List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error)
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (itinerary_id, airplane_id, departure_time, arrival_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		flight.ItineraryID, flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if pgErrCode(err) == pgForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT id, itinerary_id, airplane_id, departure_time, arrival_time, created_at, updated_at FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.ItineraryID, &f.AirplaneID, &f.DepartureTime, &f.ArrivalTime, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) GetContext(ctx context.Context, id int64) (*domain.FlightContext, error) {
	row := r.db.QueryRow(ctx, `SELECT
			f.id, f.itinerary_id, f.airplane_id, f.departure_time, f.arrival_time, f.created_at, f.updated_at,
			i.id, i.code, i.origin_airport_id, i.destination_airport_id, i.duration_minutes, i.created_at, i.updated_at,
			o.id, o.name, o.latitude, o.longitude, o.timezone, o.created_at, o.updated_at,
			d.id, d.name, d.latitude, d.longitude, d.timezone, d.created_at, d.updated_at,
			a.id, a.name, a.model, a.capacity, a.created_at, a.updated_at
		FROM flights f
		JOIN itineraries i ON i.id = f.itinerary_id
		JOIN airports o ON o.id = i.origin_airport_id
		JOIN airports d ON d.id = i.destination_airport_id
		JOIN airplanes a ON a.id = f.airplane_id
		WHERE f.id=$1`, id)

	var fc domain.FlightContext
	err := row.Scan(
		&fc.Flight.ID, &fc.Flight.ItineraryID, &fc.Flight.AirplaneID, &fc.Flight.DepartureTime, &fc.Flight.ArrivalTime, &fc.Flight.CreatedAt, &fc.Flight.UpdatedAt,
		&fc.Itinerary.ID, &fc.Itinerary.Code, &fc.Itinerary.OriginAirportID, &fc.Itinerary.DestinationAirportID, &fc.Itinerary.DurationMinutes, &fc.Itinerary.CreatedAt, &fc.Itinerary.UpdatedAt,
		&fc.OriginAirport.ID, &fc.OriginAirport.Name, &fc.OriginAirport.Latitude, &fc.OriginAirport.Longitude, &fc.OriginAirport.Timezone, &fc.OriginAirport.CreatedAt, &fc.OriginAirport.UpdatedAt,
		&fc.DestinationAirport.ID, &fc.DestinationAirport.Name, &fc.DestinationAirport.Latitude, &fc.DestinationAirport.Longitude, &fc.DestinationAirport.Timezone, &fc.DestinationAirport.CreatedAt, &fc.DestinationAirport.UpdatedAt,
		&fc.Airplane.ID, &fc.Airplane.Name, &fc.Airplane.Model, &fc.Airplane.Capacity, &fc.Airplane.CreatedAt, &fc.Airplane.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fc, nil
}

func (r *PGFlightRepository) List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error) {
	query := r.sb.
		Select("id", "itinerary_id", "airplane_id", "departure_time", "arrival_time", "created_at", "updated_at").
		From("flights").
		OrderBy("departure_time")

	if filter.ItineraryID > 0 {
		query = query.Where(sq.Eq{"itinerary_id": filter.ItineraryID})
	}
	if !filter.DepartureAfter.IsZero() {
		query = query.Where(sq.GtOrEq{"departure_time": filter.DepartureAfter})
	}
	if !filter.DepartureBefore.IsZero() {
		query = query.Where(sq.Lt{"departure_time": filter.DepartureBefore})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.ItineraryID, &f.AirplaneID, &f.DepartureTime, &f.ArrivalTime, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `UPDATE flights SET itinerary_id=$1, airplane_id=$2, departure_time=$3, arrival_time=$4, updated_at=now()
		WHERE id=$5
		RETURNING created_at, updated_at`,
		flight.ItineraryID, flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime, flight.ID).
		Scan(&flight.CreatedAt, &flight.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if pgErrCode(err) == pgForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
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

func (r *PGFlightRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
