// Package repository provides database access for staff and coverage pins.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wildguard_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a staff member or pin does not exist.
var ErrNotFound = errors.New("staff record not found")

// Staff is a responder who can be auto-assigned to reports.
type Staff struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// Pin is one coverage location owned by a staff member. A staff member may
// own many pins; undeleted pins are the live set used for assignment.
type Pin struct {
	ID        uuid.UUID  `db:"id"`
	StaffID   uuid.UUID  `db:"staff_id"`
	Label     string     `db:"label"`
	Latitude  float64    `db:"latitude"`
	Longitude float64    `db:"longitude"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// Repository provides database operations for staff and pins.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new staff repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActivePins returns all undeleted pins in stable insertion order.
// The ordering makes nearest-pin tie-breaks deterministic.
func (r *Repository) ListActivePins(ctx context.Context) ([]Pin, error) {
	var pins []Pin
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, staff_id, label, latitude, longitude, created_at, deleted_at
			FROM staff_locations
			WHERE deleted_at IS NULL
			ORDER BY created_at, id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		pins = pins[:0]
		for rows.Next() {
			var p Pin
			if err := rows.Scan(&p.ID, &p.StaffID, &p.Label, &p.Latitude, &p.Longitude, &p.CreatedAt, &p.DeletedAt); err != nil {
				return err
			}
			pins = append(pins, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list active pins: %w", err)
	}
	return pins, nil
}

// CreatePin inserts a new coverage pin.
func (r *Repository) CreatePin(ctx context.Context, p *Pin) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff_locations (id, staff_id, label, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.StaffID, p.Label, p.Latitude, p.Longitude, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create pin: %w", err)
	}
	return nil
}

// SoftDeletePin marks a pin deleted; it leaves the live set immediately.
func (r *Repository) SoftDeletePin(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff_locations SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete pin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateStaff inserts a new staff member.
func (r *Repository) CreateStaff(ctx context.Context, s *Staff) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.Name, s.Email, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// GetStaff returns one undeleted staff member.
func (r *Repository) GetStaff(ctx context.Context, id uuid.UUID) (Staff, error) {
	var s Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, deleted_at
		FROM staff
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt, &s.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrNotFound
	}
	if err != nil {
		return Staff{}, fmt.Errorf("get staff: %w", err)
	}
	return s, nil
}

// ListStaff returns all undeleted staff members.
func (r *Repository) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, created_at, deleted_at
		FROM staff
		WHERE deleted_at IS NULL
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var members []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, err
		}
		members = append(members, s)
	}
	return members, rows.Err()
}
