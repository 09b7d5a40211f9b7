// Package service implements the time-window + radius clustering rule that
// groups a new report into an existing or new event.
package service

import (
	"context"
	"time"

	"wildguard_backend/internal/cluster/repository"
	"wildguard_backend/internal/geo"
	settingsrepo "wildguard_backend/internal/settings/repository"
	"wildguard_backend/platform/db"

	"github.com/google/uuid"
)

// SettingsSource yields the live settings snapshot. Thresholds are read at
// report-creation time so operator reconfiguration applies to the next
// report without a restart.
type SettingsSource interface {
	Current(ctx context.Context) (settingsrepo.Snapshot, error)
}

// Attacher is the transactional find-or-create boundary.
type Attacher interface {
	AttachOrCreate(ctx context.Context, reportID uuid.UUID, location geo.Point, assignedStaffID *uuid.UUID, radiusMeters float64, window time.Duration) (repository.Decision, error)
}

// Service clusters newly created reports into events.
type Service struct {
	repo     *repository.Repository
	attacher Attacher
	settings SettingsSource
}

// New creates a new clustering service.
func New(repo *repository.Repository, settings SettingsSource) *Service {
	return &Service{repo: repo, attacher: repo, settings: settings}
}

// Cluster attaches the report to an open event within the configured radius
// whose latest report falls inside the configured time window, or creates a
// new event anchored at the report's location.
func (s *Service) Cluster(ctx context.Context, reportID uuid.UUID, location geo.Point, assignedStaffID *uuid.UUID) (repository.Decision, error) {
	snap, err := s.settings.Current(ctx)
	if err != nil {
		return repository.Decision{}, err
	}

	radius := float64(snap.EventClusteringRadiusMeters)
	window := time.Duration(snap.EventClusteringTimeMinutes) * time.Minute

	// A failed attach leaves the report permanently unclustered, so
	// transient aborts are retried.
	var decision repository.Decision
	err = db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		var attachErr error
		decision, attachErr = s.attacher.AttachOrCreate(ctx, reportID, location, assignedStaffID, radius, window)
		return attachErr
	})
	return decision, err
}

// List returns events for the operator API.
func (s *Service) List(ctx context.Context, limit, offset int) ([]repository.Event, error) {
	return s.repo.List(ctx, limit, offset)
}
