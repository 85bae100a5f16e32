package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReservationConfirmed EventType = "reservation_confirmed"
	EventReservationCancelled EventType = "reservation_cancelled"
	EventReservationCompleted EventType = "reservation_completed"
	EventReservationNoShow    EventType = "reservation_no_show"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ReservationID string      `json:"reservation_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// ReservationPayload carries everything the notification sender needs; it is
// assembled before publish so handlers never reach back into storage.
type ReservationPayload struct {
	ReservationCode string `json:"reservation_code"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	CafeName        string `json:"cafe_name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"party_size"`
	CancelReason    string `json:"cancel_reason,omitempty"`
}
