package domain

import (
	"testing"
	"time"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action ReservationAction
		from   ReservationStatus
		valid  bool
	}{
		{ActionConfirm, ReservationStatusPending, true},
		{ActionConfirm, ReservationStatusConfirmed, false},
		{ActionCancel, ReservationStatusConfirmed, true},
		{ActionCancel, ReservationStatusPending, true},
		{ActionCancel, ReservationStatusCancelled, false},
		{ActionCancel, ReservationStatusCompleted, false},
		{ActionCancel, ReservationStatusNoShow, false},
		{ActionComplete, ReservationStatusConfirmed, true},
		{ActionComplete, ReservationStatusPending, false},
		{ActionComplete, ReservationStatusCompleted, false},
		{ActionNoShow, ReservationStatusConfirmed, true},
		{ActionNoShow, ReservationStatusCancelled, false},
		{"unknown", ReservationStatusConfirmed, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []ReservationStatus{
		ReservationStatusCancelled,
		ReservationStatusCompleted,
		ReservationStatusNoShow,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []ReservationStatus{ReservationStatusPending, ReservationStatusConfirmed} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestApplyRejectsTerminalStates(t *testing.T) {
	r := &Reservation{Status: ReservationStatusConfirmed}
	if err := r.Apply(ActionCancel); err != nil {
		t.Fatalf("cancel from confirmed: %v", err)
	}
	if r.Status != ReservationStatusCancelled {
		t.Fatalf("status=%s, want CANCELLED", r.Status)
	}

	// A second cancel must fail and leave the status untouched.
	if err := r.Apply(ActionCancel); err == nil {
		t.Fatal("cancel from cancelled should fail")
	}
	if r.Status != ReservationStatusCancelled {
		t.Fatalf("status changed to %s after rejected transition", r.Status)
	}
}

func TestStartAndEndAt(t *testing.T) {
	r := &Reservation{Date: "2026-09-15", StartTime: "18:30", DurationMinutes: 90}

	start, err := r.StartAt(time.UTC)
	if err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	want := time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("start=%v, want %v", start, want)
	}

	end, err := r.EndAt(time.UTC)
	if err != nil {
		t.Fatalf("EndAt: %v", err)
	}
	if !end.Equal(want.Add(90 * time.Minute)) {
		t.Fatalf("end=%v, want %v", end, want.Add(90*time.Minute))
	}
}
