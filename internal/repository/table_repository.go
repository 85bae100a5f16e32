package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barsan/reservation-service/internal/domain"
)

// TableRepository defines persistence access for cafe tables.
type TableRepository interface {
	Create(ctx context.Context, table *domain.Table) error
	Update(ctx context.Context, table *domain.Table) error
	GetByID(ctx context.Context, id string) (*domain.Table, error)
	ListByCafe(ctx context.Context, cafeID string) ([]domain.Table, error)
}

type tableRepository struct {
	pool *pgxpool.Pool
}

// NewTableRepository returns a Postgres-backed implementation.
func NewTableRepository(pool *pgxpool.Pool) TableRepository {
	return &tableRepository{pool: pool}
}

func (r *tableRepository) Create(ctx context.Context, table *domain.Table) error {
	const query = `
        INSERT INTO cafe_tables (cafe_id, label, capacity, active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		table.CafeID,
		table.Label,
		table.Capacity,
		table.Active,
	).Scan(&table.ID, &table.CreatedAt, &table.UpdatedAt)
}

func (r *tableRepository) Update(ctx context.Context, table *domain.Table) error {
	const query = `
        UPDATE cafe_tables SET label=$1, capacity=$2, active=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query, table.Label, table.Capacity, table.Active, table.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, id string) (*domain.Table, error) {
	const query = `
        SELECT id, cafe_id, label, capacity, active, created_at, updated_at
        FROM cafe_tables WHERE id=$1`

	var table domain.Table
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&table.ID,
		&table.CafeID,
		&table.Label,
		&table.Capacity,
		&table.Active,
		&table.CreatedAt,
		&table.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) ListByCafe(ctx context.Context, cafeID string) ([]domain.Table, error) {
	const query = `
        SELECT id, cafe_id, label, capacity, active, created_at, updated_at
        FROM cafe_tables WHERE cafe_id=$1 ORDER BY label`

	rows, err := r.pool.Query(ctx, query, cafeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var table domain.Table
		if err := rows.Scan(
			&table.ID,
			&table.CafeID,
			&table.Label,
			&table.Capacity,
			&table.Active,
			&table.CreatedAt,
			&table.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}
