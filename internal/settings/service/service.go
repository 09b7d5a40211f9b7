// Package service provides business logic for system settings.
package service

import (
	"context"
	"errors"
	"time"

	"wildguard_backend/internal/settings/repository"
	"wildguard_backend/internal/settings/transport"
	"wildguard_backend/platform/apperr"

	"github.com/google/uuid"
)

// Service reads and appends system setting snapshots. Reads always hit the
// database so an operator's reconfiguration takes effect on the next report.
type Service struct {
	repo *repository.Repository
}

// New creates a new settings service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Current returns the live settings snapshot. A missing snapshot is a
// configuration error, never silently defaulted.
func (s *Service) Current(ctx context.Context) (repository.Snapshot, error) {
	snap, err := s.repo.Current(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		return repository.Snapshot{}, apperr.Wrap(apperr.KindInternal, "system settings not configured", err)
	}
	return snap, err
}

// EnsureConfigured verifies a snapshot exists. Called at startup so a
// misconfigured deployment fails before accepting webhooks.
func (s *Service) EnsureConfigured(ctx context.Context) error {
	_, err := s.Current(ctx)
	return err
}

// Update appends a new snapshot built from the current one plus the request.
func (s *Service) Update(ctx context.Context, req transport.UpdateSettingsRequest) (repository.Snapshot, error) {
	if req.EventClusteringTimeMinutes <= 0 {
		return repository.Snapshot{}, apperr.Validation("eventClusteringTimeMinutes must be positive")
	}
	if req.EventClusteringRadiusMeters <= 0 {
		return repository.Snapshot{}, apperr.Validation("eventClusteringRadiusMeters must be positive")
	}
	if req.LineSessionTimeoutHours <= 0 {
		return repository.Snapshot{}, apperr.Validation("lineSessionTimeoutHours must be positive")
	}

	snap := repository.Snapshot{
		ID:                          uuid.New(),
		GeofenceAddressPrefix:       req.GeofenceAddressPrefix,
		EventClusteringTimeMinutes:  req.EventClusteringTimeMinutes,
		EventClusteringRadiusMeters: req.EventClusteringRadiusMeters,
		LineSessionTimeoutHours:     req.LineSessionTimeoutHours,
		CreatedAt:                   time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, &snap); err != nil {
		return repository.Snapshot{}, err
	}

	return snap, nil
}
