package dto

import (
	"time"

	"github.com/barsan/reservation-service/internal/domain"
)

// CreateReservationRequest payload.
type CreateReservationRequest struct {
	TableID         string `json:"table_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	PartySize       int    `json:"party_size"`
}

// CancelReservationRequest payload.
type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

// ReservationResponse represents one reservation.
type ReservationResponse struct {
	ID              string                   `json:"id"`
	Code            string                   `json:"code"`
	TableID         string                   `json:"table_id"`
	Date            string                   `json:"date"`
	Time            string                   `json:"time"`
	DurationMinutes int                      `json:"duration_minutes"`
	PartySize       int                      `json:"party_size"`
	Status          domain.ReservationStatus `json:"status"`
	CancelReason    *string                  `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// AvailabilityResponse answers an availability probe.
type AvailabilityResponse struct {
	TableID         string `json:"table_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Available       bool   `json:"available"`
}

// FromReservation maps a domain reservation to its response shape.
func FromReservation(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		Code:            r.Code,
		TableID:         r.TableID,
		Date:            r.Date,
		Time:            r.StartTime,
		DurationMinutes: r.DurationMinutes,
		PartySize:       r.PartySize,
		Status:          r.Status,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
