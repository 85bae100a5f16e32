package timeslot

import (
	"regexp"
	"testing"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"9:30", 570, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"12", 0, true},
		{"12:3", 0, true},
	}
	for _, tt := range cases {
		got, err := ToMinutes(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ToMinutes(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToMinutes(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToMinutes(%q)=%d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAddMinutes(t *testing.T) {
	got, err := AddMinutes("10:45", 30)
	if err != nil {
		t.Fatalf("AddMinutes: %v", err)
	}
	if got != "11:15" {
		t.Fatalf("AddMinutes(10:45, 30)=%s, want 11:15", got)
	}

	// Crossing midnight is rejected rather than wrapping.
	if _, err := AddMinutes("23:30", 60); err == nil {
		t.Fatal("AddMinutes(23:30, 60) should reject day rollover")
	}
	if _, err := AddMinutes("23:00", 60); err == nil {
		t.Fatal("AddMinutes(23:00, 60) lands exactly on 24:00 and should be rejected")
	}
}

func TestOverlapsBoundary(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"back to back", Interval{600, 30}, Interval{630, 30}, false},
		{"one minute over", Interval{600, 31}, Interval{630, 30}, true},
		{"identical", Interval{600, 30}, Interval{600, 30}, true},
		{"contained", Interval{600, 120}, Interval{630, 30}, true},
		{"disjoint", Interval{600, 30}, Interval{720, 30}, false},
		{"touching before", Interval{630, 30}, Interval{600, 30}, false},
	}
	for _, tt := range cases {
		if got := Overlaps(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Overlaps(%v, %v)=%v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
		// The predicate is symmetric.
		if got := Overlaps(tt.b, tt.a); got != tt.want {
			t.Errorf("%s: Overlaps(%v, %v)=%v, want %v", tt.name, tt.b, tt.a, got, tt.want)
		}
	}
}

func TestIsAvailable(t *testing.T) {
	existing := []Interval{
		{Start: 600, Duration: 60},  // 10:00-11:00
		{Start: 720, Duration: 90},  // 12:00-13:30
		{Start: 1080, Duration: 60}, // 18:00-19:00
	}

	if !IsAvailable(Interval{Start: 660, Duration: 60}, existing) {
		t.Error("11:00-12:00 fits exactly between bookings and should be available")
	}
	if IsAvailable(Interval{Start: 660, Duration: 61}, existing) {
		t.Error("11:00-12:01 overlaps the 12:00 booking")
	}
	if IsAvailable(Interval{Start: 590, Duration: 20}, existing) {
		t.Error("09:50-10:10 overlaps the 10:00 booking")
	}
	if !IsAvailable(Interval{Start: 0, Duration: 30}, nil) {
		t.Error("empty existing set must always be available")
	}
}

func TestNewReservationCode(t *testing.T) {
	format := regexp.MustCompile(`^RSV[0-9]{6}[0-9A-Z]{3}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := NewReservationCode()
		if err != nil {
			t.Fatalf("NewReservationCode: %v", err)
		}
		if !format.MatchString(code) {
			t.Fatalf("code %q does not match expected format", code)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 45 {
		t.Fatalf("suspicious collision rate: %d unique codes out of 50", len(seen))
	}
}
