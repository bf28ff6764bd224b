package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkraev/airsched/internal/domain"
)

type AirplaneRepository interface {
	Create(ctx context.Context, airplane *domain.Airplane) error
	GetByID(ctx context.Context, id int64) (*domain.Airplane, error)
	List(ctx context.Context) ([]domain.Airplane, error)
	Update(ctx context.Context, airplane *domain.Airplane) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type PGAirplaneRepository struct {
	db *pgxpool.Pool
}

func NewAirplaneRepository(db *pgxpool.Pool) AirplaneRepository {
	return &PGAirplaneRepository{db: db}
}

func (r *PGAirplaneRepository) Create(ctx context.Context, airplane *domain.Airplane) error {
	err := r.db.QueryRow(ctx, `INSERT INTO airplanes (name, model, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`, airplane.Name, airplane.Model, airplane.Capacity).
		Scan(&airplane.ID, &airplane.CreatedAt, &airplane.UpdatedAt)
	if pgErrCode(err) == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

func (r *PGAirplaneRepository) GetByID(ctx context.Context, id int64) (*domain.Airplane, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, model, capacity, created_at, updated_at FROM airplanes WHERE id=$1`, id)
	var a domain.Airplane
	if err := row.Scan(&a.ID, &a.Name, &a.Model, &a.Capacity, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGAirplaneRepository) List(ctx context.Context) ([]domain.Airplane, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, model, capacity, created_at, updated_at FROM airplanes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	airplanes := make([]domain.Airplane, 0)
	for rows.Next() {
		var a domain.Airplane
		if err := rows.Scan(&a.ID, &a.Name, &a.Model, &a.Capacity, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		airplanes = append(airplanes, a)
	}
	return airplanes, rows.Err()
}

func (r *PGAirplaneRepository) Update(ctx context.Context, airplane *domain.Airplane) error {
	err := r.db.QueryRow(ctx, `UPDATE airplanes SET name=$1, model=$2, capacity=$3, updated_at=now()
		WHERE id=$4
		RETURNING created_at, updated_at`, airplane.Name, airplane.Model, airplane.Capacity, airplane.ID).
		Scan(&airplane.CreatedAt, &airplane.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if pgErrCode(err) == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

func (r *PGAirplaneRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM airplanes WHERE id=$1`, id)
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

func (r *PGAirplaneRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM airplanes WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ AirplaneRepository = (*PGAirplaneRepository)(nil)
