package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateCode is returned when an insert collides with the unique
// index on reservation codes; callers regenerate the code and retry.
var ErrDuplicateCode = errors.New("reservation code already exists")

// ErrSlotTaken is returned when the storage-level slot guard rejects an
// insert that the in-process lock should have prevented.
var ErrSlotTaken = errors.New("slot already reserved")

const pgUniqueViolation = "23505"

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "reservations_code_key":
		return ErrDuplicateCode
	case "idx_reservations_exact_slot":
		return ErrSlotTaken
	}
	return err
}
