package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/barsan/reservation-service/internal/domain"
	"github.com/barsan/reservation-service/internal/repository"
	"github.com/barsan/reservation-service/internal/timeslot"
	apperrors "github.com/barsan/reservation-service/pkg/util"
)

// CafeService handles staff administration of cafes and their tables.
type CafeService struct {
	cafes  repository.CafeRepository
	tables repository.TableRepository
}

// NewCafeService builds the service.
func NewCafeService(cafes repository.CafeRepository, tables repository.TableRepository) *CafeService {
	return &CafeService{cafes: cafes, tables: tables}
}

// CreateCafe registers a new cafe with its operating-hours window.
func (s *CafeService) CreateCafe(ctx context.Context, staff *domain.StaffMember, name, openTime, closeTime string) (*domain.Cafe, error) {
	if staff.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("only admins create cafes")
	}
	name = sanitize(name)
	if name == "" {
		return nil, apperrors.NewInvalidRequest("name required", nil)
	}
	open, err := timeslot.ToMinutes(openTime)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid open time", map[string]any{"open": openTime})
	}
	closing, err := timeslot.ToMinutes(closeTime)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid close time", map[string]any{"close": closeTime})
	}
	if open >= closing {
		return nil, apperrors.NewInvalidRequest("open time must be before close time", nil)
	}

	cafe := &domain.Cafe{Name: name, OpenTime: openTime, CloseTime: closeTime}
	if err := s.cafes.Create(ctx, cafe); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return cafe, nil
}

// ListCafes returns every cafe.
func (s *CafeService) ListCafes(ctx context.Context) ([]domain.Cafe, error) {
	cafes, err := s.cafes.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return cafes, nil
}

// ListTables returns a cafe's tables.
func (s *CafeService) ListTables(ctx context.Context, cafeID string) ([]domain.Table, error) {
	if _, err := s.getCafe(ctx, cafeID); err != nil {
		return nil, err
	}
	tables, err := s.tables.ListByCafe(ctx, cafeID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return tables, nil
}

// AddTable registers a table under a cafe the staff member manages.
func (s *CafeService) AddTable(ctx context.Context, staff *domain.StaffMember, cafeID, label string, capacity int) (*domain.Table, error) {
	if !staff.CanManageCafe(cafeID) {
		return nil, apperrors.NewForbidden("cafe out of scope")
	}
	if _, err := s.getCafe(ctx, cafeID); err != nil {
		return nil, err
	}
	label = sanitize(label)
	if label == "" {
		return nil, apperrors.NewInvalidRequest("label required", nil)
	}
	if capacity <= 0 {
		return nil, apperrors.NewInvalidRequest("capacity must be positive", nil)
	}

	table := &domain.Table{CafeID: cafeID, Label: label, Capacity: capacity, Active: true}
	if err := s.tables.Create(ctx, table); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return table, nil
}

// SetTableActive toggles whether a table accepts new reservations. Existing
// reservations are untouched.
func (s *CafeService) SetTableActive(ctx context.Context, staff *domain.StaffMember, tableID string, active bool) (*domain.Table, error) {
	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("table", map[string]any{"id": tableID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	if !staff.CanManageCafe(table.CafeID) {
		return nil, apperrors.NewForbidden("cafe out of scope")
	}

	table.Active = active
	if err := s.tables.Update(ctx, table); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return table, nil
}

func (s *CafeService) getCafe(ctx context.Context, cafeID string) (*domain.Cafe, error) {
	cafe, err := s.cafes.GetByID(ctx, cafeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("cafe", map[string]any{"id": cafeID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return cafe, nil
}
