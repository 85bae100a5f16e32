package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barsan/reservation-service/internal/domain"
)

// CafeRepository defines persistence access for cafes.
type CafeRepository interface {
	Create(ctx context.Context, cafe *domain.Cafe) error
	Update(ctx context.Context, cafe *domain.Cafe) error
	GetByID(ctx context.Context, id string) (*domain.Cafe, error)
	List(ctx context.Context) ([]domain.Cafe, error)
}

type cafeRepository struct {
	pool *pgxpool.Pool
}

// NewCafeRepository returns a Postgres-backed implementation.
func NewCafeRepository(pool *pgxpool.Pool) CafeRepository {
	return &cafeRepository{pool: pool}
}

func (r *cafeRepository) Create(ctx context.Context, cafe *domain.Cafe) error {
	const query = `
        INSERT INTO cafes (name, open_time, close_time)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		cafe.Name,
		cafe.OpenTime,
		cafe.CloseTime,
	).Scan(&cafe.ID, &cafe.CreatedAt, &cafe.UpdatedAt)
}

func (r *cafeRepository) Update(ctx context.Context, cafe *domain.Cafe) error {
	const query = `
        UPDATE cafes SET name=$1, open_time=$2, close_time=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query, cafe.Name, cafe.OpenTime, cafe.CloseTime, cafe.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *cafeRepository) GetByID(ctx context.Context, id string) (*domain.Cafe, error) {
	const query = `
        SELECT id, name, open_time, close_time, created_at, updated_at
        FROM cafes WHERE id=$1`

	var cafe domain.Cafe
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&cafe.ID,
		&cafe.Name,
		&cafe.OpenTime,
		&cafe.CloseTime,
		&cafe.CreatedAt,
		&cafe.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cafe, nil
}

func (r *cafeRepository) List(ctx context.Context) ([]domain.Cafe, error) {
	const query = `
        SELECT id, name, open_time, close_time, created_at, updated_at
        FROM cafes ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cafes []domain.Cafe
	for rows.Next() {
		var cafe domain.Cafe
		if err := rows.Scan(
			&cafe.ID,
			&cafe.Name,
			&cafe.OpenTime,
			&cafe.CloseTime,
			&cafe.CreatedAt,
			&cafe.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cafes = append(cafes, cafe)
	}
	return cafes, rows.Err()
}
