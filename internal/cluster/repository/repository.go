// Package repository provides transactional database access for report
// clustering events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wildguard_backend/internal/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is a cluster of spatiotemporally related reports. The center is the
// location of the representative (first) report and never moves.
type Event struct {
	ID                     uuid.UUID  `db:"id"`
	CenterLatitude         float64    `db:"center_latitude"`
	CenterLongitude        float64    `db:"center_longitude"`
	RepresentativeReportID uuid.UUID  `db:"representative_report_id"`
	ReportCount            int        `db:"report_count"`
	AssignedStaffID        *uuid.UUID `db:"assigned_staff_id"`
	LastReportAt           time.Time  `db:"last_report_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
	DeletedAt              *time.Time `db:"deleted_at"`
}

// Decision records one clustering outcome.
type Decision struct {
	EventID uuid.UUID
	Created bool
}

// Repository provides database operations for events.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new cluster repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// clusteringLockID is the advisory lock key serializing find-or-create
// transactions. Row locks alone cannot prevent duplicate events: when the
// candidate set is empty there is no row to lock, and two concurrent
// submissions near a new location would each insert their own event.
const clusteringLockID int64 = 0x65766E74

// AttachOrCreate finds an open event for the report or creates a new one.
// The candidate read and the increment-or-insert run in one transaction
// under a transaction-scoped advisory lock, so two concurrently created
// nearby reports cannot each spawn their own event.
//
// The time window slides from the event's most recent report, not from the
// representative report.
func (r *Repository) AttachOrCreate(ctx context.Context, reportID uuid.UUID, location geo.Point, assignedStaffID *uuid.UUID, radiusMeters float64, window time.Duration) (Decision, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Decision{}, fmt.Errorf("begin clustering tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, clusteringLockID); err != nil {
		return Decision{}, fmt.Errorf("acquire clustering lock: %w", err)
	}

	now := time.Now().UTC()
	cutoff := now.Add(-window)

	rows, err := tx.Query(ctx, `
		SELECT id, center_latitude, center_longitude
		FROM events
		WHERE deleted_at IS NULL AND last_report_at >= $1
		ORDER BY last_report_at DESC
		FOR UPDATE
	`, cutoff)
	if err != nil {
		return Decision{}, fmt.Errorf("load candidate events: %w", err)
	}

	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.center.Lat, &c.center.Lng); err != nil {
			rows.Close()
			return Decision{}, err
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Decision{}, err
	}

	match := matchCandidate(location, candidates, radiusMeters)

	var decision Decision
	if match != nil {
		decision = Decision{EventID: match.id}
		_, err = tx.Exec(ctx, `
			UPDATE events
			SET report_count = report_count + 1, last_report_at = $2, updated_at = $2
			WHERE id = $1
		`, match.id, now)
		if err != nil {
			return Decision{}, fmt.Errorf("attach report to event: %w", err)
		}
	} else {
		decision = Decision{EventID: uuid.New(), Created: true}
		_, err = tx.Exec(ctx, `
			INSERT INTO events (
				id, center_latitude, center_longitude, representative_report_id,
				report_count, assigned_staff_id, last_report_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, 1, $5, $6, $6, $6)
		`, decision.EventID, location.Lat, location.Lng, reportID, assignedStaffID, now)
		if err != nil {
			return Decision{}, fmt.Errorf("create event: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO event_reports (event_id, report_id, created_at)
		VALUES ($1, $2, $3)
	`, decision.EventID, reportID, now)
	if err != nil {
		return Decision{}, fmt.Errorf("link report to event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Decision{}, fmt.Errorf("commit clustering tx: %w", err)
	}
	return decision, nil
}

// candidate is an open event row considered for attachment.
type candidate struct {
	id     uuid.UUID
	center geo.Point
}

// matchCandidate picks the candidate event nearest to the report location,
// or nil when none falls within the radius.
func matchCandidate(location geo.Point, candidates []candidate, radiusMeters float64) *candidate {
	var match *candidate
	bestDistance := radiusMeters
	for i := range candidates {
		d := geo.DistanceMeters(location, candidates[i].center)
		if d <= bestDistance {
			match = &candidates[i]
			bestDistance = d
		}
	}
	return match
}

// List returns undeleted events, newest activity first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, center_latitude, center_longitude, representative_report_id,
			report_count, assigned_staff_id, last_report_at, created_at, updated_at, deleted_at
		FROM events
		WHERE deleted_at IS NULL
		ORDER BY last_report_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CenterLatitude, &e.CenterLongitude,
			&e.RepresentativeReportID, &e.ReportCount, &e.AssignedStaffID,
			&e.LastReportAt, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns one undeleted event.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Event, error) {
	var e Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, center_latitude, center_longitude, representative_report_id,
			report_count, assigned_staff_id, last_report_at, created_at, updated_at, deleted_at
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&e.ID, &e.CenterLatitude, &e.CenterLongitude,
		&e.RepresentativeReportID, &e.ReportCount, &e.AssignedStaffID,
		&e.LastReportAt, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, fmt.Errorf("event %s: %w", id, pgx.ErrNoRows)
	}
	return e, err
}
