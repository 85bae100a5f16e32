// Package timeslot holds the pure time-of-day arithmetic behind table
// availability. Nothing here touches storage; callers hand in the candidate
// interval and the already-filtered reservation set for one table and date.
package timeslot

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const minutesPerDay = 24 * 60

var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Interval is a half-open time range [Start, Start+Duration) expressed in
// minutes since midnight.
type Interval struct {
	Start    int
	Duration int
}

// ValidTime reports whether t is a well-formed 24-hour "HH:MM" string.
func ValidTime(t string) bool {
	return timePattern.MatchString(t)
}

// ToMinutes converts a 24-hour "HH:MM" string to minutes since midnight.
func ToMinutes(t string) (int, error) {
	if !ValidTime(t) {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", t)
	}
	var hours, mins int
	fmt.Sscanf(t, "%d:%d", &hours, &mins)
	return hours*60 + mins, nil
}

// FromMinutes renders minutes-since-midnight as "HH:MM".
func FromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes shifts a time-of-day forward. Results at or past midnight are
// rejected: reservations never span day boundaries.
func AddMinutes(t string, minutes int) (string, error) {
	start, err := ToMinutes(t)
	if err != nil {
		return "", err
	}
	end := start + minutes
	if end >= minutesPerDay {
		return "", fmt.Errorf("time %s + %dm crosses midnight", t, minutes)
	}
	return FromMinutes(end), nil
}

// Overlaps is the single overlap predicate for two half-open intervals.
// Back-to-back intervals, where one ends exactly when the other starts, do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.Start+b.Duration && b.Start < a.Start+a.Duration
}

// IsAvailable reports whether candidate collides with none of existing.
// An empty existing set is always available.
func IsAvailable(candidate Interval, existing []Interval) bool {
	for _, e := range existing {
		if Overlaps(candidate, e) {
			return false
		}
	}
	return true
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReservationCode generates a human-facing code of the form
// "RSV" + 6 digits + 3 base-36 characters. The generator is probabilistic;
// the reservations table's unique index on code is the real uniqueness
// guarantee and callers retry on collision.
func NewReservationCode() (string, error) {
	digits := make([]byte, 6)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = '0' + byte(n.Int64())
	}
	suffix := make([]byte, 3)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return "RSV" + string(digits) + string(suffix), nil
}
