package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/barsan/reservation-service/internal/config"
	"github.com/barsan/reservation-service/internal/domain"
	"github.com/barsan/reservation-service/internal/events"
	"github.com/barsan/reservation-service/internal/repository"
	apperrors "github.com/barsan/reservation-service/pkg/util"
)

// ---- fakes -----------------------------------------------------------------

type fakeCafeRepo struct {
	mu    sync.Mutex
	cafes map[string]domain.Cafe
}

func (f *fakeCafeRepo) Create(_ context.Context, cafe *domain.Cafe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cafe.ID = fmt.Sprintf("cafe-%d", len(f.cafes)+1)
	f.cafes[cafe.ID] = *cafe
	return nil
}

func (f *fakeCafeRepo) Update(_ context.Context, cafe *domain.Cafe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cafes[cafe.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.cafes[cafe.ID] = *cafe
	return nil
}

func (f *fakeCafeRepo) GetByID(_ context.Context, id string) (*domain.Cafe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cafe, ok := f.cafes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &cafe, nil
}

func (f *fakeCafeRepo) List(_ context.Context) ([]domain.Cafe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Cafe, 0, len(f.cafes))
	for _, c := range f.cafes {
		out = append(out, c)
	}
	return out, nil
}

type fakeTableRepo struct {
	mu     sync.Mutex
	tables map[string]domain.Table
}

func (f *fakeTableRepo) Create(_ context.Context, table *domain.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	table.ID = fmt.Sprintf("table-%d", len(f.tables)+1)
	f.tables[table.ID] = *table
	return nil
}

func (f *fakeTableRepo) Update(_ context.Context, table *domain.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tables[table.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.tables[table.ID] = *table
	return nil
}

func (f *fakeTableRepo) GetByID(_ context.Context, id string) (*domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table, ok := f.tables[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &table, nil
}

func (f *fakeTableRepo) ListByCafe(_ context.Context, cafeID string) ([]domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Table
	for _, t := range f.tables {
		if t.CafeID == cafeID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeGuestRepo struct {
	mu     sync.Mutex
	guests map[string]domain.Guest
}

func (f *fakeGuestRepo) Create(_ context.Context, guest *domain.Guest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	guest.ID = fmt.Sprintf("guest-%d", len(f.guests)+1)
	f.guests[guest.ID] = *guest
	return nil
}

func (f *fakeGuestRepo) Update(_ context.Context, guest *domain.Guest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.guests[guest.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.guests[guest.ID] = *guest
	return nil
}

func (f *fakeGuestRepo) GetByID(_ context.Context, id string) (*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	guest, ok := f.guests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &guest, nil
}

func (f *fakeGuestRepo) GetByEmail(_ context.Context, email string) (*domain.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.guests {
		if g.Email == email {
			copied := g
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]domain.Reservation
	seq          int
}

func (f *fakeReservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reservations {
		if existing.Code == res.Code {
			return repository.ErrDuplicateCode
		}
		if existing.TableID == res.TableID && existing.Date == res.Date &&
			existing.StartTime == res.StartTime && !existing.Status.Terminal() {
			return repository.ErrSlotTaken
		}
	}
	f.seq++
	res.ID = fmt.Sprintf("res-%d", f.seq)
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	f.reservations[res.ID] = *res
	return nil
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &res, nil
}

func (f *fakeReservationRepo) GetByCode(_ context.Context, code string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, res := range f.reservations {
		if res.Code == code {
			copied := res
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeReservationRepo) ListActiveForTableDate(_ context.Context, tableID, date string) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.TableID == tableID && res.Date == date && res.Status != domain.ReservationStatusCancelled {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListByGuest(_ context.Context, guestID string, _, _ int) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.GuestID == guestID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListConfirmedThrough(_ context.Context, date string) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.Status == domain.ReservationStatusConfirmed && res.Date <= date {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) UpdateStatus(_ context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reservations[res.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.reservations[res.ID] = *res
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ---- harness ---------------------------------------------------------------

type bookingFixture struct {
	svc        *BookingService
	dispatcher *recordingDispatcher
	tableID    string
	guestID    string
}

// newBookingFixture wires a service over in-memory fakes with one cafe
// open 09:00-22:00, one four-seat table and one guest. The clock is pinned
// to noon the day before the bookings used by the tests.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	cafes := &fakeCafeRepo{cafes: make(map[string]domain.Cafe)}
	tables := &fakeTableRepo{tables: make(map[string]domain.Table)}
	guests := &fakeGuestRepo{guests: make(map[string]domain.Guest)}
	reservations := &fakeReservationRepo{reservations: make(map[string]domain.Reservation)}
	dispatcher := &recordingDispatcher{}

	ctx := context.Background()
	cafe := &domain.Cafe{Name: "BarSan", OpenTime: "09:00", CloseTime: "22:00"}
	if err := cafes.Create(ctx, cafe); err != nil {
		t.Fatal(err)
	}
	table := &domain.Table{CafeID: cafe.ID, Label: "T1", Capacity: 4, Active: true}
	if err := tables.Create(ctx, table); err != nil {
		t.Fatal(err)
	}
	guest := &domain.Guest{Name: "Nok", Email: "nok@example.com", Status: domain.GuestStatusActive}
	if err := guests.Create(ctx, guest); err != nil {
		t.Fatal(err)
	}

	cfg := config.BookingConfig{
		CancelCutoffHours:      2,
		DefaultDurationMinutes: 120,
		Timezone:               "UTC",
	}
	svc := NewBookingService(cfg, BookingDependencies{
		CafeRepo:        cafes,
		TableRepo:       tables,
		ReservationRepo: reservations,
		GuestRepo:       guests,
		Dispatcher:      dispatcher,
	})
	svc.now = func() time.Time {
		return time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)
	}

	return &bookingFixture{svc: svc, dispatcher: dispatcher, tableID: table.ID, guestID: guest.ID}
}

func (f *bookingFixture) input(startTime string, duration, party int) BookingInput {
	return BookingInput{
		GuestID:         f.guestID,
		TableID:         f.tableID,
		Date:            "2026-09-15",
		StartTime:       startTime,
		DurationMinutes: duration,
		PartySize:       party,
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return de.Code
}

// ---- tests -----------------------------------------------------------------

func TestBookConfirmsAndRoundTrips(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 4))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Status != domain.ReservationStatusConfirmed {
		t.Fatalf("status=%s, want CONFIRMED", res.Status)
	}
	if !regexp.MustCompile(`^RSV[0-9]{6}[0-9A-Z]{3}$`).MatchString(res.Code) {
		t.Fatalf("code %q does not match format", res.Code)
	}

	fetched, err := f.svc.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.TableID != f.tableID || fetched.Date != "2026-09-15" ||
		fetched.StartTime != "18:00" || fetched.DurationMinutes != 90 || fetched.PartySize != 4 {
		t.Fatalf("fetched reservation differs from booked one: %+v", fetched)
	}

	confirmed := f.dispatcher.byType(events.EventReservationConfirmed)
	if len(confirmed) != 1 {
		t.Fatalf("got %d confirmed events, want 1", len(confirmed))
	}
	payload, ok := confirmed[0].Payload.(events.ReservationPayload)
	if !ok {
		t.Fatalf("payload type %T", confirmed[0].Payload)
	}
	if payload.ReservationCode != res.Code || payload.GuestName != "Nok" || payload.CafeName != "BarSan" || payload.PartySize != 4 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestBookValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input BookingInput
		code  string
	}{
		{"over capacity", f.input("18:00", 60, 5), "INVALID_REQUEST"},
		{"zero party", f.input("18:00", 60, 0), "INVALID_REQUEST"},
		{"bad time", f.input("25:00", 60, 2), "INVALID_REQUEST"},
		{"not HH:MM", f.input("6pm", 60, 2), "INVALID_REQUEST"},
		{"before opening", f.input("08:00", 60, 2), "INVALID_REQUEST"},
		{"runs past closing", f.input("21:30", 60, 2), "INVALID_REQUEST"},
		{"negative duration", f.input("18:00", -30, 2), "INVALID_REQUEST"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Book(ctx, tt.input); errCode(t, err) != tt.code {
				t.Fatalf("got %s, want %s", errCode(t, err), tt.code)
			}
		})
	}

	badDate := f.input("18:00", 60, 2)
	badDate.Date = "15/09/2026"
	if _, err := f.svc.Book(ctx, badDate); errCode(t, err) != "INVALID_REQUEST" {
		t.Fatal("malformed date must be rejected")
	}

	unknownTable := f.input("18:00", 60, 2)
	unknownTable.TableID = "table-999"
	if _, err := f.svc.Book(ctx, unknownTable); errCode(t, err) != "NOT_FOUND" {
		t.Fatal("unknown table must be NOT_FOUND")
	}
}

func TestBookRejectsOverlapAllowsBackToBack(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Book(ctx, f.input("18:00", 60, 2)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	if _, err := f.svc.Book(ctx, f.input("18:30", 60, 2)); errCode(t, err) != "SLOT_UNAVAILABLE" {
		t.Fatal("overlapping booking must fail with SLOT_UNAVAILABLE")
	}

	// One ends at 19:00 exactly when the other starts: no overlap.
	if _, err := f.svc.Book(ctx, f.input("19:00", 60, 2)); err != nil {
		t.Fatalf("back-to-back booking: %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	ok, err := f.svc.CheckAvailability(ctx, f.tableID, "2026-09-15", "18:00", 60)
	if err != nil || !ok {
		t.Fatalf("empty table should be available, got ok=%v err=%v", ok, err)
	}

	if _, err := f.svc.Book(ctx, f.input("18:00", 60, 2)); err != nil {
		t.Fatalf("Book: %v", err)
	}

	ok, err = f.svc.CheckAvailability(ctx, f.tableID, "2026-09-15", "18:30", 60)
	if err != nil || ok {
		t.Fatalf("overlapping slot should be unavailable, got ok=%v err=%v", ok, err)
	}
}

func TestConcurrentBookingsSameSlot(t *testing.T) {
	f := newBookingFixture(t)

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(context.Background(), f.input("18:00", 90, 2))
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errCode(t, err) == "SLOT_UNAVAILABLE":
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("%d bookings succeeded for the same slot, want exactly 1", successes)
	}
	if conflicts != callers-1 {
		t.Fatalf("%d conflicts, want %d", conflicts, callers-1)
	}
}

func TestConcurrentBookingsDisjointSlots(t *testing.T) {
	f := newBookingFixture(t)

	starts := []string{"10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	var wg sync.WaitGroup
	errs := make([]error, len(starts))

	for i, start := range starts {
		wg.Add(1)
		go func(i int, start string) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(context.Background(), f.input(start, 60, 2))
		}(i, start)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("disjoint booking %s failed: %v", starts[i], err)
		}
	}
}

func TestGuestCancelWithinWindow(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	// Booked for 18:00 tomorrow; the pinned clock is 30 hours ahead of the
	// cutoff, so the guest may cancel.
	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	guest := Actor{Subject: domain.SubjectTypeGuest, ID: f.guestID}
	cancelled, err := f.svc.Cancel(ctx, guest, res.ID, "change of plans")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.ReservationStatusCancelled {
		t.Fatalf("status=%s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "change of plans" {
		t.Fatal("cancel reason not recorded")
	}
	if len(f.dispatcher.byType(events.EventReservationCancelled)) != 1 {
		t.Fatal("cancellation event not published")
	}

	// The freed slot is bookable again.
	if _, err := f.svc.Book(ctx, f.input("18:00", 90, 2)); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestGuestCancelPastCutoff(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// One hour before start, cutoff is two hours.
	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)
	}

	guest := Actor{Subject: domain.SubjectTypeGuest, ID: f.guestID}
	if _, err := f.svc.Cancel(ctx, guest, res.ID, ""); errCode(t, err) != "CANCELLATION_WINDOW_EXPIRED" {
		t.Fatalf("got %v, want CANCELLATION_WINDOW_EXPIRED", err)
	}

	still, err := f.svc.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if still.Status != domain.ReservationStatusConfirmed {
		t.Fatalf("status=%s after rejected cancel, want CONFIRMED", still.Status)
	}

	// Staff cancel unconditionally, even past the cutoff.
	staff := Actor{Subject: domain.SubjectTypeStaff}
	if _, err := f.svc.Cancel(ctx, staff, res.ID, "walk-in conflict"); err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
}

func TestCancelIsNotIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	staff := Actor{Subject: domain.SubjectTypeStaff}
	if _, err := f.svc.Cancel(ctx, staff, res.ID, ""); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, staff, res.ID, ""); errCode(t, err) != "INVALID_TRANSITION" {
		t.Fatalf("second cancel: got %v, want INVALID_TRANSITION", err)
	}

	still, err := f.svc.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if still.Status != domain.ReservationStatusCancelled {
		t.Fatalf("status=%s, want CANCELLED unchanged", still.Status)
	}
}

func TestGuestCannotCancelOthersReservation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	other := Actor{Subject: domain.SubjectTypeGuest, ID: "guest-999"}
	if _, err := f.svc.Cancel(ctx, other, res.ID, ""); errCode(t, err) != "FORBIDDEN" {
		t.Fatalf("got %v, want FORBIDDEN", err)
	}
}

func TestMarkNoShowTiming(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	staff := Actor{Subject: domain.SubjectTypeStaff}
	if _, err := f.svc.MarkNoShow(ctx, staff, res.ID); errCode(t, err) != "INVALID_REQUEST" {
		t.Fatalf("no-show before start: got %v, want INVALID_REQUEST", err)
	}

	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 15, 18, 20, 0, 0, time.UTC)
	}
	marked, err := f.svc.MarkNoShow(ctx, staff, res.ID)
	if err != nil {
		t.Fatalf("MarkNoShow: %v", err)
	}
	if marked.Status != domain.ReservationStatusNoShow {
		t.Fatalf("status=%s, want NO_SHOW", marked.Status)
	}
}

func TestMarkCompletedRequiresEndPassed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	res, err := f.svc.Book(ctx, f.input("18:00", 90, 2))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	staff := Actor{Subject: domain.SubjectTypeStaff}
	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 15, 19, 0, 0, 0, time.UTC) // mid-reservation
	}
	if _, err := f.svc.MarkCompleted(ctx, staff, res.ID); errCode(t, err) != "INVALID_REQUEST" {
		t.Fatalf("complete before end: got %v, want INVALID_REQUEST", err)
	}

	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 15, 20, 0, 0, 0, time.UTC)
	}
	done, err := f.svc.MarkCompleted(ctx, staff, res.ID)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if done.Status != domain.ReservationStatusCompleted {
		t.Fatalf("status=%s, want COMPLETED", done.Status)
	}
}

func TestSweepCompleted(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	past, err := f.svc.Book(ctx, f.input("13:00", 60, 2))
	if err != nil {
		t.Fatalf("Book past: %v", err)
	}
	future, err := f.svc.Book(ctx, f.input("20:00", 60, 2))
	if err != nil {
		t.Fatalf("Book future: %v", err)
	}

	// Day of the reservations, 15:00: the 13:00 one has ended, the 20:00
	// one has not.
	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 15, 15, 0, 0, 0, time.UTC)
	}

	swept, err := f.svc.SweepCompleted(ctx)
	if err != nil {
		t.Fatalf("SweepCompleted: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept %d reservations, want 1", swept)
	}

	got, _ := f.svc.GetByID(ctx, past.ID)
	if got.Status != domain.ReservationStatusCompleted {
		t.Fatalf("past reservation status=%s, want COMPLETED", got.Status)
	}
	got, _ = f.svc.GetByID(ctx, future.ID)
	if got.Status != domain.ReservationStatusConfirmed {
		t.Fatalf("future reservation status=%s, want CONFIRMED", got.Status)
	}
}
