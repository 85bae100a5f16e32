package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/barsan/reservation-service/internal/domain"
	"github.com/barsan/reservation-service/internal/repository"
	apperrors "github.com/barsan/reservation-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Session     *domain.Session
	Guest       *domain.Guest
	Staff       *domain.StaffMember
}

// AuthMiddleware validates bearer tokens, checks the backing session and
// loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions *SessionManager
	guests   repository.GuestRepository
	staff    repository.StaffRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions *SessionManager, guests repository.GuestRepository, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, guests: guests, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	session, err := m.sessions.Validate(c.Context(), claims.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionExpired):
			return apperrors.NewSessionExpired()
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionRevoked):
			return apperrors.NewUnauthorized("session no longer valid")
		default:
			return apperrors.NewStorageError(err)
		}
	}
	if session.SubjectID != claims.SubjectID || session.Subject != claims.Subject {
		return apperrors.NewUnauthorized("token does not match session")
	}

	principal := &Principal{SubjectType: claims.Subject, Session: session}

	switch claims.Subject {
	case domain.SubjectTypeGuest:
		guest, err := m.guests.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("guest not found")
			}
			return apperrors.MapError(err)
		}
		if guest.Status != domain.GuestStatusActive {
			return apperrors.NewUnauthorized("guest account suspended")
		}
		principal.Guest = guest
	case domain.SubjectTypeStaff:
		staff, err := m.staff.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("staff not found")
			}
			return apperrors.MapError(err)
		}
		if !staff.Active {
			return apperrors.NewUnauthorized("staff account inactive")
		}
		principal.Staff = staff
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
