package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/barsan/reservation-service/internal/domain"
)

// Session validation errors. Expired and revoked are distinct from
// not-found so diagnostics can separate "log in again" from a bogus token,
// even though all three surface as an authentication failure.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")
)

// SessionStore persists sessions. The redis implementation backs
// deployments; the in-memory one backs tests.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, token string) error
	Touch(ctx context.Context, token string, at time.Time) error
}

// SessionManager governs the session lifecycle: issue, validate, revoke.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager builds a manager over the given store.
func NewSessionManager(store SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SessionManager{store: store, ttl: ttl, now: time.Now}
}

// Issue creates and persists a new session for the subject.
func (m *SessionManager) Issue(ctx context.Context, subjectID string, subject domain.SubjectType) (*domain.Session, error) {
	now := m.now()
	session := &domain.Session{
		Token:      uuid.NewString(),
		SubjectID:  subjectID,
		Subject:    subject,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
		LastSeenAt: now,
	}
	if err := m.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate returns the session when it exists, is not revoked and has not
// expired. Expiry is checked here rather than swept in the background.
func (m *SessionManager) Validate(ctx context.Context, token string) (*domain.Session, error) {
	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Revoked {
		return nil, ErrSessionRevoked
	}
	now := m.now()
	if !now.Before(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	// Best-effort activity stamp; a failed touch must not fail the request.
	_ = m.store.Touch(ctx, token, now)
	return session, nil
}

// Revoke invalidates a session. Revoking an unknown token is not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	err := m.store.Revoke(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}
