package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/barsan/reservation-service/internal/config"
	"github.com/barsan/reservation-service/internal/domain"
	"github.com/barsan/reservation-service/internal/events"
	"github.com/barsan/reservation-service/internal/locking"
	"github.com/barsan/reservation-service/internal/observability"
	"github.com/barsan/reservation-service/internal/repository"
	"github.com/barsan/reservation-service/internal/timeslot"
	apperrors "github.com/barsan/reservation-service/pkg/util"
)

const codeRetries = 3

// BookingInput describes a reservation request after transport decoding.
type BookingInput struct {
	GuestID         string
	TableID         string
	Date            string
	StartTime       string
	DurationMinutes int
	PartySize       int
}

// Actor identifies who triggers a reservation mutation.
type Actor struct {
	Subject domain.SubjectType
	ID      string
	Staff   *domain.StaffMember
}

// BookingService is the concurrency-safe entry point for reservation
// mutations. Every check-then-write sequence for the same (table, date)
// pair runs under one keyed mutex, so two racing requests can never both
// see a slot as free.
type BookingService struct {
	cafes        repository.CafeRepository
	tables       repository.TableRepository
	reservations repository.ReservationRepository
	guests       repository.GuestRepository
	locks        *locking.KeyedMutex
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	cutoff       time.Duration
	defaultDur   int
	loc          *time.Location
	now          func() time.Time
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	CafeRepo        repository.CafeRepository
	TableRepo       repository.TableRepository
	ReservationRepo repository.ReservationRepository
	GuestRepo       repository.GuestRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
}

// NewBookingService builds the service.
func NewBookingService(cfg config.BookingConfig, deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		cafes:        deps.CafeRepo,
		tables:       deps.TableRepo,
		reservations: deps.ReservationRepo,
		guests:       deps.GuestRepo,
		locks:        locking.NewKeyedMutex(),
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		metrics:      deps.Metrics,
		cutoff:       cfg.CancelCutoff(),
		defaultDur:   cfg.DefaultDurationMinutes,
		loc:          cfg.Location(),
		now:          time.Now,
	}
}

func lockKey(tableID, date string) string {
	return tableID + "|" + date
}

// Book validates the request, serializes against concurrent bookings for
// the same table and date, and creates a CONFIRMED reservation when the
// slot is free.
func (s *BookingService) Book(ctx context.Context, input BookingInput) (*domain.Reservation, error) {
	if input.DurationMinutes == 0 {
		input.DurationMinutes = s.defaultDur
	}
	table, candidate, err := s.validateRequest(ctx, input)
	if err != nil {
		s.recordOutcome(err)
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(input.TableID, input.Date))
	defer unlock()

	existing, err := s.reservations.ListActiveForTableDate(ctx, input.TableID, input.Date)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if !timeslot.IsAvailable(candidate, activeIntervals(existing)) {
		s.metrics.RecordBookingOutcome("slot_unavailable")
		return nil, apperrors.NewSlotUnavailable(map[string]any{
			"table_id": input.TableID,
			"date":     input.Date,
			"time":     input.StartTime,
		})
	}

	reservation := &domain.Reservation{
		GuestID:         input.GuestID,
		TableID:         input.TableID,
		Date:            input.Date,
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		PartySize:       input.PartySize,
		Status:          domain.ReservationStatusPending,
	}
	// This system grants immediately; there is no separate approval step.
	if err := reservation.Apply(domain.ActionConfirm); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.persistWithFreshCode(ctx, reservation); err != nil {
		return nil, err
	}

	s.metrics.RecordBookingOutcome("confirmed")
	s.logger.Info("reservation confirmed",
		zap.String("reservation_id", reservation.ID),
		zap.String("code", reservation.Code),
		zap.String("table_id", reservation.TableID),
		zap.String("date", reservation.Date),
		zap.String("time", reservation.StartTime),
	)
	s.publishReservationEvent(ctx, events.EventReservationConfirmed, reservation, table, "")
	return reservation, nil
}

// CheckAvailability answers whether the candidate slot is currently free.
// The answer is advisory; only Book's critical section decides for real.
func (s *BookingService) CheckAvailability(ctx context.Context, tableID, date, startTime string, durationMinutes int) (bool, error) {
	if durationMinutes == 0 {
		durationMinutes = s.defaultDur
	}
	input := BookingInput{
		TableID:         tableID,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
		PartySize:       1,
	}
	_, candidate, err := s.validateRequest(ctx, input)
	if err != nil {
		return false, err
	}

	existing, err := s.reservations.ListActiveForTableDate(ctx, tableID, date)
	if err != nil {
		return false, apperrors.NewStorageError(err)
	}
	return timeslot.IsAvailable(candidate, activeIntervals(existing)), nil
}

// Cancel transitions a reservation to CANCELLED. Guests may cancel their
// own reservations up to the cutoff before start; staff cancel any
// reservation in a cafe they manage, at any time.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, reservationID, reason string) (*domain.Reservation, error) {
	return s.transition(ctx, actor, reservationID, domain.ActionCancel, reason)
}

// MarkCompleted transitions a CONFIRMED reservation to COMPLETED once its
// end time has passed.
func (s *BookingService) MarkCompleted(ctx context.Context, actor Actor, reservationID string) (*domain.Reservation, error) {
	return s.transition(ctx, actor, reservationID, domain.ActionComplete, "")
}

// MarkNoShow flags a reservation whose guest never arrived. Staff only,
// any time after the reservation's start.
func (s *BookingService) MarkNoShow(ctx context.Context, actor Actor, reservationID string) (*domain.Reservation, error) {
	return s.transition(ctx, actor, reservationID, domain.ActionNoShow, "")
}

// GetByID fetches one reservation.
func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reservation", map[string]any{"id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return reservation, nil
}

// ListForGuest returns a guest's reservations, newest first.
func (s *BookingService) ListForGuest(ctx context.Context, guestID string, limit, offset int) ([]domain.Reservation, error) {
	reservations, err := s.reservations.ListByGuest(ctx, guestID, limit, offset)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return reservations, nil
}

// SweepCompleted marks every CONFIRMED reservation whose interval has fully
// passed as COMPLETED. Invoked by the background sweep worker.
func (s *BookingService) SweepCompleted(ctx context.Context) (int, error) {
	today := s.now().In(s.loc).Format("2006-01-02")
	candidates, err := s.reservations.ListConfirmedThrough(ctx, today)
	if err != nil {
		return 0, apperrors.NewStorageError(err)
	}

	actor := Actor{Subject: domain.SubjectTypeStaff}
	swept := 0
	for i := range candidates {
		res := &candidates[i]
		end, err := res.EndAt(s.loc)
		if err != nil || !end.Before(s.now()) {
			continue
		}
		if _, err := s.transition(ctx, actor, res.ID, domain.ActionComplete, ""); err != nil {
			s.logger.Warn("completion sweep skipped reservation",
				zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

// transition is the shared acquire-check-mutate-release path for every
// status change, so a cancellation can never interleave with a concurrent
// booking's availability read on the same table and date.
func (s *BookingService) transition(ctx context.Context, actor Actor, reservationID string, action domain.ReservationAction, reason string) (*domain.Reservation, error) {
	// An unlocked read first, just to learn which key to lock.
	peek, err := s.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(peek.TableID, peek.Date))
	defer unlock()

	// Reload under the lock; the record may have changed since the peek.
	reservation, err := s.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	table, err := s.tables.GetByID(ctx, reservation.TableID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	if err := s.authorizeTransition(actor, reservation, table, action); err != nil {
		return nil, err
	}
	if err := s.guardTransition(actor, reservation, action); err != nil {
		return nil, err
	}

	if err := reservation.Apply(action); err != nil {
		return nil, apperrors.NewInvalidTransition(string(reservation.Status), string(action))
	}
	if action == domain.ActionCancel && reason != "" {
		reservation.CancelReason = &reason
	}

	if err := s.reservations.UpdateStatus(ctx, reservation); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	s.logger.Info("reservation transitioned",
		zap.String("reservation_id", reservation.ID),
		zap.String("action", string(action)),
		zap.String("status", string(reservation.Status)),
	)
	if eventType, ok := eventForAction(action); ok {
		s.publishReservationEvent(ctx, eventType, reservation, table, reason)
	}
	return reservation, nil
}

// authorizeTransition enforces who may trigger the action at all.
func (s *BookingService) authorizeTransition(actor Actor, reservation *domain.Reservation, table *domain.Table, action domain.ReservationAction) error {
	switch actor.Subject {
	case domain.SubjectTypeGuest:
		if action != domain.ActionCancel {
			return apperrors.NewForbidden("staff action")
		}
		if reservation.GuestID != actor.ID {
			return apperrors.NewForbidden("not your reservation")
		}
	case domain.SubjectTypeStaff:
		// Actor.Staff is nil for the internal sweep, which acts system-wide.
		if actor.Staff != nil && !actor.Staff.CanManageCafe(table.CafeID) {
			return apperrors.NewForbidden("cafe out of scope")
		}
	default:
		return apperrors.NewForbidden("unknown actor")
	}
	return nil
}

// guardTransition enforces the time-based policy on top of the raw state
// machine.
func (s *BookingService) guardTransition(actor Actor, reservation *domain.Reservation, action domain.ReservationAction) error {
	start, err := reservation.StartAt(s.loc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := s.now()

	switch action {
	case domain.ActionCancel:
		if actor.Subject == domain.SubjectTypeGuest && now.After(start.Add(-s.cutoff)) {
			return apperrors.NewCancellationWindowExpired(
				"reservations can no longer be cancelled this close to the start time")
		}
	case domain.ActionComplete:
		end := start.Add(time.Duration(reservation.DurationMinutes) * time.Minute)
		if now.Before(end) {
			return apperrors.NewInvalidRequest("reservation has not ended yet", nil)
		}
	case domain.ActionNoShow:
		if now.Before(start) {
			return apperrors.NewInvalidRequest("reservation has not started yet", nil)
		}
	}
	return nil
}

// validateRequest runs the pure checks of a booking request and resolves
// the target table. It performs reads only; the caller decides what runs
// under the lock.
func (s *BookingService) validateRequest(ctx context.Context, input BookingInput) (*domain.Table, timeslot.Interval, error) {
	var none timeslot.Interval

	if _, err := time.ParseInLocation("2006-01-02", input.Date, s.loc); err != nil {
		return nil, none, apperrors.NewInvalidRequest("invalid date, want YYYY-MM-DD", map[string]any{"date": input.Date})
	}
	start, err := timeslot.ToMinutes(input.StartTime)
	if err != nil {
		return nil, none, apperrors.NewInvalidRequest("invalid time, want HH:MM", map[string]any{"time": input.StartTime})
	}
	if input.DurationMinutes <= 0 {
		return nil, none, apperrors.NewInvalidRequest("duration must be positive", nil)
	}
	if _, err := timeslot.AddMinutes(input.StartTime, input.DurationMinutes); err != nil {
		return nil, none, apperrors.NewInvalidRequest("reservation may not cross midnight", nil)
	}
	if input.PartySize <= 0 {
		return nil, none, apperrors.NewInvalidRequest("party size must be positive", nil)
	}

	table, err := s.tables.GetByID(ctx, input.TableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, none, apperrors.NewNotFound("table", map[string]any{"id": input.TableID})
		}
		return nil, none, apperrors.NewStorageError(err)
	}
	if !table.Active {
		return nil, none, apperrors.NewInvalidRequest("table is not accepting reservations", nil)
	}
	if input.PartySize > table.Capacity {
		return nil, none, apperrors.NewInvalidRequest("party size exceeds table capacity", map[string]any{
			"party_size": input.PartySize,
			"capacity":   table.Capacity,
		})
	}

	cafe, err := s.cafes.GetByID(ctx, table.CafeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, none, apperrors.NewNotFound("cafe", map[string]any{"id": table.CafeID})
		}
		return nil, none, apperrors.NewStorageError(err)
	}
	open, err := timeslot.ToMinutes(cafe.OpenTime)
	if err != nil {
		return nil, none, apperrors.NewInternalError(err)
	}
	closing, err := timeslot.ToMinutes(cafe.CloseTime)
	if err != nil {
		return nil, none, apperrors.NewInternalError(err)
	}
	if start < open || start+input.DurationMinutes > closing {
		return nil, none, apperrors.NewInvalidRequest("requested slot is outside operating hours", map[string]any{
			"open":  cafe.OpenTime,
			"close": cafe.CloseTime,
		})
	}

	return table, timeslot.Interval{Start: start, Duration: input.DurationMinutes}, nil
}

// persistWithFreshCode inserts the reservation, regenerating the code on a
// collision with the unique index. An exact-slot conflict from the storage
// backstop surfaces as SlotUnavailable.
func (s *BookingService) persistWithFreshCode(ctx context.Context, reservation *domain.Reservation) error {
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := timeslot.NewReservationCode()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		reservation.Code = code

		err = s.reservations.Create(ctx, reservation)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicateCode):
			continue
		case errors.Is(err, repository.ErrSlotTaken):
			return apperrors.NewSlotUnavailable(nil)
		default:
			return apperrors.NewStorageError(err)
		}
	}
	return apperrors.NewInternalError(errors.New("could not generate a unique reservation code"))
}

func (s *BookingService) publishReservationEvent(ctx context.Context, eventType events.EventType, reservation *domain.Reservation, table *domain.Table, reason string) {
	if s.dispatcher == nil {
		return
	}

	payload := events.ReservationPayload{
		ReservationCode: reservation.Code,
		Date:            reservation.Date,
		Time:            reservation.StartTime,
		PartySize:       reservation.PartySize,
		CancelReason:    reason,
	}
	if guest, err := s.guests.GetByID(ctx, reservation.GuestID); err == nil {
		payload.GuestName = guest.Name
		payload.GuestEmail = guest.Email
	}
	if table != nil {
		if cafe, err := s.cafes.GetByID(ctx, table.CafeID); err == nil {
			payload.CafeName = cafe.Name
		}
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		ReservationID: reservation.ID,
		Timestamp:     s.now(),
		Payload:       payload,
	})
}

func (s *BookingService) recordOutcome(err error) {
	de := apperrors.ToDomainError(err)
	if de == nil {
		return
	}
	switch de.Code {
	case "INVALID_REQUEST":
		s.metrics.RecordBookingOutcome("invalid_request")
	case "NOT_FOUND":
		s.metrics.RecordBookingOutcome("not_found")
	}
}

func eventForAction(action domain.ReservationAction) (events.EventType, bool) {
	switch action {
	case domain.ActionCancel:
		return events.EventReservationCancelled, true
	case domain.ActionComplete:
		return events.EventReservationCompleted, true
	case domain.ActionNoShow:
		return events.EventReservationNoShow, true
	}
	return "", false
}

func activeIntervals(reservations []domain.Reservation) []timeslot.Interval {
	intervals := make([]timeslot.Interval, 0, len(reservations))
	for _, r := range reservations {
		start, err := timeslot.ToMinutes(r.StartTime)
		if err != nil {
			continue
		}
		intervals = append(intervals, timeslot.Interval{Start: start, Duration: r.DurationMinutes})
	}
	return intervals
}
