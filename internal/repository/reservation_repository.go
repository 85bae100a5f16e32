package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barsan/reservation-service/internal/domain"
)

const reservationColumns = `id, code, guest_id, table_id, date, start_time,
        duration_minutes, party_size, status, cancel_reason, created_at, updated_at`

// ReservationRepository encapsulates reservation persistence. The booking
// coordinator treats each method as one atomic read or write.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByCode(ctx context.Context, code string) (*domain.Reservation, error)
	// ListActiveForTableDate returns every non-cancelled reservation for the
	// table and date, the set the availability check runs against.
	ListActiveForTableDate(ctx context.Context, tableID, date string) ([]domain.Reservation, error)
	ListByGuest(ctx context.Context, guestID string, limit, offset int) ([]domain.Reservation, error)
	// ListConfirmedThrough returns confirmed reservations dated on or before
	// date, for the completion sweep.
	ListConfirmedThrough(ctx context.Context, date string) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, reservation *domain.Reservation) error
}

type reservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository returns a Postgres-backed implementation.
func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &reservationRepository{pool: pool}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	const query = `
        INSERT INTO reservations (code, guest_id, table_id, date, start_time,
            duration_minutes, party_size, status, cancel_reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		reservation.Code,
		reservation.GuestID,
		reservation.TableID,
		reservation.Date,
		reservation.StartTime,
		reservation.DurationMinutes,
		reservation.PartySize,
		reservation.Status,
		reservation.CancelReason,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *reservationRepository) GetByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *reservationRepository) ListActiveForTableDate(ctx context.Context, tableID, date string) ([]domain.Reservation, error) {
	const query = `
        SELECT ` + reservationColumns + `
        FROM reservations
        WHERE table_id=$1 AND date=$2 AND status <> 'CANCELLED'
        ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, tableID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) ListByGuest(ctx context.Context, guestID string, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `
        SELECT ` + reservationColumns + `
        FROM reservations
        WHERE guest_id=$1
        ORDER BY date DESC, start_time DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, guestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) ListConfirmedThrough(ctx context.Context, date string) ([]domain.Reservation, error) {
	const query = `
        SELECT ` + reservationColumns + `
        FROM reservations
        WHERE status='CONFIRMED' AND date <= $1
        ORDER BY date, start_time`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, reservation *domain.Reservation) error {
	const query = `
        UPDATE reservations SET status=$1, cancel_reason=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.pool.Exec(ctx, query, reservation.Status, reservation.CancelReason, reservation.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reservationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&res.ID,
		&res.Code,
		&res.GuestID,
		&res.TableID,
		&res.Date,
		&res.StartTime,
		&res.DurationMinutes,
		&res.PartySize,
		&res.Status,
		&res.CancelReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.Code,
			&res.GuestID,
			&res.TableID,
			&res.Date,
			&res.StartTime,
			&res.DurationMinutes,
			&res.PartySize,
			&res.Status,
			&res.CancelReason,
			&res.CreatedAt,
			&res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
