package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barsan/reservation-service/internal/domain"
)

// GuestRepository defines persistence access for guest accounts.
type GuestRepository interface {
	Create(ctx context.Context, guest *domain.Guest) error
	Update(ctx context.Context, guest *domain.Guest) error
	GetByID(ctx context.Context, id string) (*domain.Guest, error)
	GetByEmail(ctx context.Context, email string) (*domain.Guest, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

// NewGuestRepository returns a Postgres-backed implementation.
func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

func (r *guestRepository) Create(ctx context.Context, guest *domain.Guest) error {
	const query = `
        INSERT INTO guests (name, email, phone, password_hash, provider, verified, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		guest.Name,
		guest.Email,
		guest.Phone,
		guest.PasswordHash,
		guest.Provider,
		guest.Verified,
		guest.Status,
	).Scan(&guest.ID, &guest.CreatedAt, &guest.UpdatedAt)
}

func (r *guestRepository) Update(ctx context.Context, guest *domain.Guest) error {
	const query = `
        UPDATE guests SET name=$1, email=$2, phone=$3, password_hash=$4, provider=$5,
            verified=$6, status=$7, updated_at=NOW()
        WHERE id=$8`

	cmd, err := r.pool.Exec(ctx, query,
		guest.Name,
		guest.Email,
		guest.Phone,
		guest.PasswordHash,
		guest.Provider,
		guest.Verified,
		guest.Status,
		guest.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	const query = `
        SELECT id, name, email, phone, password_hash, provider, verified, status, created_at, updated_at
        FROM guests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *guestRepository) GetByEmail(ctx context.Context, email string) (*domain.Guest, error) {
	const query = `
        SELECT id, name, email, phone, password_hash, provider, verified, status, created_at, updated_at
        FROM guests WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *guestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Guest, error) {
	var guest domain.Guest
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&guest.ID,
		&guest.Name,
		&guest.Email,
		&guest.Phone,
		&guest.PasswordHash,
		&guest.Provider,
		&guest.Verified,
		&guest.Status,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &guest, nil
}
