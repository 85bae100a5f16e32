package domain

import "time"

// StaffRole grants cafe management capabilities.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "ADMIN"
	StaffRoleManager StaffRole = "MANAGER"
)

// StaffMember is the domain model for restaurant staff. Managers are scoped
// to the cafes listed in CafeIDs; admins may act on every cafe.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	CafeIDs      []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManageCafe reports whether the staff member may mutate the given cafe.
func (s *StaffMember) CanManageCafe(cafeID string) bool {
	if s.Role == StaffRoleAdmin {
		return true
	}
	for _, id := range s.CafeIDs {
		if id == cafeID {
			return true
		}
	}
	return false
}
