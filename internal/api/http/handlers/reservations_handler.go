package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/barsan/reservation-service/internal/api/dto"
	"github.com/barsan/reservation-service/internal/auth"
	"github.com/barsan/reservation-service/internal/service"
)

// ReservationsHandler exposes booking endpoints.
type ReservationsHandler struct {
	bookings *service.BookingService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(bookings *service.BookingService) *ReservationsHandler {
	return &ReservationsHandler{bookings: bookings}
}

// Create handles POST /api/reservations (guest only).
func (h *ReservationsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Guest == nil {
		return fiber.NewError(http.StatusForbidden, "guest account required")
	}

	var req dto.CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	reservation, err := h.bookings.Book(c.UserContext(), service.BookingInput{
		GuestID:         principal.Guest.ID,
		TableID:         req.TableID,
		Date:            req.Date,
		StartTime:       req.Time,
		DurationMinutes: req.DurationMinutes,
		PartySize:       req.PartySize,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromReservation(reservation)})
}

// Get handles GET /api/reservations/:id. Guests only see their own.
func (h *ReservationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	reservation, err := h.bookings.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Guest != nil && reservation.GuestID != principal.Guest.ID {
		return fiber.NewError(http.StatusForbidden, "not your reservation")
	}

	return c.JSON(fiber.Map{"data": dto.FromReservation(reservation)})
}

// List handles GET /api/reservations (guest's own reservations).
func (h *ReservationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Guest == nil {
		return fiber.NewError(http.StatusForbidden, "guest account required")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	reservations, err := h.bookings.ListForGuest(c.UserContext(), principal.Guest.ID, limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, dto.FromReservation(&reservations[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Cancel handles POST /api/reservations/:id/cancel (guest or staff).
func (h *ReservationsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CancelReservationRequest
	// Body is optional for cancellation.
	_ = c.BodyParser(&req)

	reservation, err := h.bookings.Cancel(c.UserContext(), actorFromPrincipal(principal), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromReservation(reservation)})
}

// Complete handles POST /api/reservations/:id/complete (staff only).
func (h *ReservationsHandler) Complete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	reservation, err := h.bookings.MarkCompleted(c.UserContext(), actorFromPrincipal(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromReservation(reservation)})
}

// NoShow handles POST /api/reservations/:id/no-show (staff only).
func (h *ReservationsHandler) NoShow(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	reservation, err := h.bookings.MarkNoShow(c.UserContext(), actorFromPrincipal(principal), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromReservation(reservation)})
}

// Availability handles GET /api/availability.
func (h *ReservationsHandler) Availability(c *fiber.Ctx) error {
	tableID := c.Query("table_id")
	date := c.Query("date")
	startTime := c.Query("time")
	duration, _ := strconv.Atoi(c.Query("duration", "0"))

	if tableID == "" || date == "" || startTime == "" {
		return fiber.NewError(http.StatusBadRequest, "table_id, date and time required")
	}

	available, err := h.bookings.CheckAvailability(c.UserContext(), tableID, date, startTime, duration)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		TableID:         tableID,
		Date:            date,
		Time:            startTime,
		DurationMinutes: duration,
		Available:       available,
	}})
}

func actorFromPrincipal(p *auth.Principal) service.Actor {
	actor := service.Actor{Subject: p.SubjectType}
	switch {
	case p.Guest != nil:
		actor.ID = p.Guest.ID
	case p.Staff != nil:
		actor.ID = p.Staff.ID
		actor.Staff = p.Staff
	}
	return actor
}
