// Package repository provides database access for system setting snapshots.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSnapshot is returned when no settings row has ever been written.
var ErrNoSnapshot = errors.New("no system settings snapshot")

// Snapshot is one row of the append-only settings log. The newest row is
// the live configuration; older rows are kept for audit.
type Snapshot struct {
	ID                          uuid.UUID `db:"id"`
	GeofenceAddressPrefix       string    `db:"geofence_address_prefix"`
	EventClusteringTimeMinutes  int       `db:"event_clustering_time_minutes"`
	EventClusteringRadiusMeters int       `db:"event_clustering_radius_meters"`
	LineSessionTimeoutHours     int       `db:"line_session_timeout_hours"`
	CreatedAt                   time.Time `db:"created_at"`
}

// Repository provides database operations for system settings.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new settings repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Current returns the most recent settings snapshot.
func (r *Repository) Current(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT id, geofence_address_prefix, event_clustering_time_minutes,
			event_clustering_radius_meters, line_session_timeout_hours, created_at
		FROM system_settings
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(
		&s.ID, &s.GeofenceAddressPrefix, &s.EventClusteringTimeMinutes,
		&s.EventClusteringRadiusMeters, &s.LineSessionTimeoutHours, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load current settings: %w", err)
	}
	return s, nil
}

// Append writes a new snapshot row. The log is never updated in place.
func (r *Repository) Append(ctx context.Context, s *Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO system_settings (
			id, geofence_address_prefix, event_clustering_time_minutes,
			event_clustering_radius_meters, line_session_timeout_hours, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.GeofenceAddressPrefix, s.EventClusteringTimeMinutes,
		s.EventClusteringRadiusMeters, s.LineSessionTimeoutHours, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("append settings snapshot: %w", err)
	}
	return nil
}
