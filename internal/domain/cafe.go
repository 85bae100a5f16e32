package domain

import "time"

// Cafe is a single restaurant location. OpenTime and CloseTime are 24-hour
// "HH:MM" strings; every reservation interval must fall inside that window.
type Cafe struct {
	ID        string
	Name      string
	OpenTime  string
	CloseTime string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Table is a bookable table owned by exactly one cafe. Inactive tables are
// kept for historical reservations but accept no new bookings.
type Table struct {
	ID        string
	CafeID    string
	Label     string
	Capacity  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
