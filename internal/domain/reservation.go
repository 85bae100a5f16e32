package domain

import (
	"fmt"
	"time"
)

// ReservationStatus enumerates lifecycle states for reservations.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusNoShow    ReservationStatus = "NO_SHOW"
)

// ReservationAction names the operations that move a reservation between
// statuses.
type ReservationAction string

const (
	ActionConfirm  ReservationAction = "confirm"
	ActionCancel   ReservationAction = "cancel"
	ActionComplete ReservationAction = "complete"
	ActionNoShow   ReservationAction = "no_show"
)

// transitionMap lists, per action, the statuses the action is legal from.
// Terminal statuses appear in no value, so every transition out of them is
// rejected.
var transitionMap = map[ReservationAction][]ReservationStatus{
	ActionConfirm:  {ReservationStatusPending},
	ActionCancel:   {ReservationStatusConfirmed, ReservationStatusPending},
	ActionComplete: {ReservationStatusConfirmed},
	ActionNoShow:   {ReservationStatusConfirmed},
}

// ValidTransition reports whether action is legal from the given status.
func ValidTransition(action ReservationAction, from ReservationStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationStatusCancelled, ReservationStatusCompleted, ReservationStatusNoShow:
		return true
	}
	return false
}

// statusAfter maps an action to the status it lands in.
var statusAfter = map[ReservationAction]ReservationStatus{
	ActionConfirm:  ReservationStatusConfirmed,
	ActionCancel:   ReservationStatusCancelled,
	ActionComplete: ReservationStatusCompleted,
	ActionNoShow:   ReservationStatusNoShow,
}

// Reservation is the aggregate for a single table booking. Date is a
// "2006-01-02" calendar date and StartTime a 24-hour "HH:MM" string; the
// booked interval is the half-open [StartTime, StartTime+Duration).
// Reservations are never deleted, only transitioned to a terminal status.
type Reservation struct {
	ID              string
	Code            string
	GuestID         string
	TableID         string
	Date            string
	StartTime       string
	DurationMinutes int
	PartySize       int
	Status          ReservationStatus
	CancelReason    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Apply transitions the reservation through action, mutating Status. It is
// the only sanctioned way to change a reservation's status.
func (r *Reservation) Apply(action ReservationAction) error {
	if !ValidTransition(action, r.Status) {
		return fmt.Errorf("illegal transition %s from %s", action, r.Status)
	}
	r.Status = statusAfter[action]
	return nil
}

// StartAt resolves the reservation's absolute start instant in loc.
func (r *Reservation) StartAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.StartTime, loc)
}

// EndAt resolves the end of the booked interval in loc.
func (r *Reservation) EndAt(loc *time.Location) (time.Time, error) {
	start, err := r.StartAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(r.DurationMinutes) * time.Minute), nil
}
