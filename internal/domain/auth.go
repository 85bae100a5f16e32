package domain

import "time"

// SubjectType differentiates guest vs staff credentials.
type SubjectType string

const (
	SubjectTypeGuest SubjectType = "GUEST"
	SubjectTypeStaff SubjectType = "STAFF"
)

// Session is a server-side authentication session. Expiry is passive: a
// session past ExpiresAt is rejected at validation time, not actively swept.
type Session struct {
	Token      string
	SubjectID  string
	Subject    SubjectType
	IssuedAt   time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
	Revoked    bool
}

// Active reports whether the session may still authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
