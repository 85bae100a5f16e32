package domain

import "time"

// GuestStatus represents lifecycle states for a guest account.
type GuestStatus string

const (
	GuestStatusActive    GuestStatus = "ACTIVE"
	GuestStatusSuspended GuestStatus = "SUSPENDED"
)

// Guest is the domain model for diners who make reservations. PasswordHash
// is empty for accounts that only ever signed in through an external
// provider.
type Guest struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Provider     *string
	Verified     bool
	Status       GuestStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
