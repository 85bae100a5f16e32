package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/barsan/reservation-service/internal/auth"
	"github.com/barsan/reservation-service/internal/config"
	"github.com/barsan/reservation-service/internal/domain"
	"github.com/barsan/reservation-service/internal/repository"
	apperrors "github.com/barsan/reservation-service/pkg/util"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{9,10}$`)
)

// AuthService coordinates registration and login flows. Logins issue a
// server-side session plus a JWT referencing it; logout revokes the session.
type AuthService struct {
	guests     repository.GuestRepository
	staff      repository.StaffRepository
	sessions   *auth.SessionManager
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	GuestRepo    repository.GuestRepository
	StaffRepo    repository.StaffRepository
	SessionStore auth.SessionStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	ttl := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	return &AuthService{
		guests:     deps.GuestRepo,
		staff:      deps.StaffRepo,
		sessions:   auth.NewSessionManager(deps.SessionStore, ttl),
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, ttl),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the JWT manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// SessionManager exposes the session manager for middleware wiring.
func (s *AuthService) SessionManager() *auth.SessionManager {
	return s.sessions
}

// RegisterGuest creates a new guest account and logs it in.
func (s *AuthService) RegisterGuest(ctx context.Context, name, email, phone, password string) (*domain.Guest, string, time.Time, error) {
	name = sanitize(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.NewReplacer("-", "", " ", "").Replace(phone)

	if name == "" {
		return nil, "", time.Time{}, apperrors.NewInvalidRequest("name required", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, "", time.Time{}, apperrors.NewInvalidRequest("invalid email", nil)
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, "", time.Time{}, apperrors.NewInvalidRequest("invalid phone number", nil)
	}
	if len(password) < 8 {
		return nil, "", time.Time{}, apperrors.NewInvalidRequest("password must be at least 8 characters", nil)
	}

	if _, err := s.guests.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewInvalidRequest("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewStorageError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	guest := &domain.Guest{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Status:       domain.GuestStatusActive,
	}
	if err := s.guests.Create(ctx, guest); err != nil {
		return nil, "", time.Time{}, apperrors.NewStorageError(err)
	}

	token, exp, err := s.login(ctx, guest.ID, domain.SubjectTypeGuest)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return guest, token, exp, nil
}

// LoginGuest authenticates a guest by email and password.
func (s *AuthService) LoginGuest(ctx context.Context, email, password string) (*domain.Guest, string, time.Time, error) {
	guest, err := s.guests.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewStorageError(err)
	}
	if guest.Status != domain.GuestStatusActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account suspended")
	}
	if guest.PasswordHash == "" {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account uses external sign-in")
	}
	if err := auth.ComparePassword(guest.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.login(ctx, guest.ID, domain.SubjectTypeGuest)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return guest, token, exp, nil
}

// LoginStaff authenticates staff.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewStorageError(err)
	}
	if !staff.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("staff inactive")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.login(ctx, staff.ID, domain.SubjectTypeStaff)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return staff, token, exp, nil
}

// Logout revokes the session behind the presented token. Unknown or
// already-revoked sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.tokenMgr.ParseToken(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (s *AuthService) login(ctx context.Context, subjectID string, subject domain.SubjectType) (string, time.Time, error) {
	session, err := s.sessions.Issue(ctx, subjectID, subject)
	if err != nil {
		return "", time.Time{}, apperrors.NewStorageError(err)
	}
	token, exp, err := s.tokenMgr.GenerateToken(subjectID, subject, session.Token)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}
