// Package service provides staff management and nearest-pin auto-assignment.
package service

import (
	"context"
	"time"

	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/staff/repository"
	"wildguard_backend/internal/staff/transport"
	"wildguard_backend/platform/apperr"

	"github.com/google/uuid"
)

// PinSource lists the live coverage pins.
type PinSource interface {
	ListActivePins(ctx context.Context) ([]repository.Pin, error)
}

// Service provides business logic for staff and coverage pins.
type Service struct {
	repo *repository.Repository
	pins PinSource
}

// New creates a new staff service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, pins: repo}
}

// FindNearestStaff returns the staff id owning the coverage pin closest to
// the report location, or nil when no pins exist. Ties keep the first pin
// encountered in the stable pin order. This is advisory; a nil result
// leaves the report unassigned.
func (s *Service) FindNearestStaff(ctx context.Context, location geo.Point) (*uuid.UUID, error) {
	pins, err := s.pins.ListActivePins(ctx)
	if err != nil {
		return nil, err
	}
	if len(pins) == 0 {
		return nil, nil
	}

	best := 0
	bestDistance := geo.DistanceMeters(location, geo.Point{Lat: pins[0].Latitude, Lng: pins[0].Longitude})
	for i := 1; i < len(pins); i++ {
		d := geo.DistanceMeters(location, geo.Point{Lat: pins[i].Latitude, Lng: pins[i].Longitude})
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	staffID := pins[best].StaffID
	return &staffID, nil
}

// GetStaff returns one staff member.
func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (repository.Staff, error) {
	member, err := s.repo.GetStaff(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Staff{}, apperr.NotFound("staff member not found")
	}
	return member, err
}

// ListStaff returns all undeleted staff members.
func (s *Service) ListStaff(ctx context.Context) ([]repository.Staff, error) {
	return s.repo.ListStaff(ctx)
}

// CreateStaff registers a new staff member.
func (s *Service) CreateStaff(ctx context.Context, req transport.CreateStaffRequest) (repository.Staff, error) {
	member := repository.Staff{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStaff(ctx, &member); err != nil {
		return repository.Staff{}, err
	}
	return member, nil
}

// ListPins returns the live coverage pins.
func (s *Service) ListPins(ctx context.Context) ([]repository.Pin, error) {
	return s.repo.ListActivePins(ctx)
}

// CreatePin adds a coverage pin for a staff member.
func (s *Service) CreatePin(ctx context.Context, req transport.CreatePinRequest) (repository.Pin, error) {
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		return repository.Pin{}, apperr.Validation("staffId must be a UUID")
	}
	if _, err := s.GetStaff(ctx, staffID); err != nil {
		return repository.Pin{}, err
	}

	pin := repository.Pin{
		ID:        uuid.New(),
		StaffID:   staffID,
		Label:     req.Label,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreatePin(ctx, &pin); err != nil {
		return repository.Pin{}, err
	}
	return pin, nil
}

// DeletePin soft-deletes a coverage pin.
func (s *Service) DeletePin(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDeletePin(ctx, id)
	if err == repository.ErrNotFound {
		return apperr.NotFound("pin not found")
	}
	return err
}
