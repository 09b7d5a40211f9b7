// Package repository provides database access for finalized sighting reports.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wildguard_backend/internal/geo"
	"wildguard_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a report does not exist or is soft-deleted.
var ErrNotFound = errors.New("report not found")

// Report statuses.
const (
	StatusWaiting   = "waiting"
	StatusCompleted = "completed"
)

// Report is a finalized sighting. Reports are soft-deleted, never removed.
type Report struct {
	ID              uuid.UUID  `db:"id"`
	AnimalType      string     `db:"animal_type"`
	Latitude        float64    `db:"latitude"`
	Longitude       float64    `db:"longitude"`
	Address         string     `db:"address"`
	Prefecture      string     `db:"prefecture"`
	City            string     `db:"city"`
	SubArea         string     `db:"sub_area"`
	AreaKey         string     `db:"area_key"`
	Images          []string   `db:"images"`
	Description     string     `db:"description"`
	PhoneNumber     *string    `db:"phone_number"`
	Status          string     `db:"status"`
	AssignedStaffID *uuid.UUID `db:"assigned_staff_id"`
	ObservedAt      time.Time  `db:"observed_at"`
	HasOnlyDate     bool       `db:"has_only_date"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

// Location returns the report coordinates as a geo point.
func (r *Report) Location() geo.Point {
	return geo.Point{Lat: r.Latitude, Lng: r.Longitude}
}

// Repository provides database operations for reports.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reports repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reportColumns = `
	id, animal_type, latitude, longitude, address, prefecture, city, sub_area,
	area_key, images, description, phone_number, status, assigned_staff_id,
	observed_at, has_only_date, created_at, updated_at, deleted_at`

// Create inserts a new report. Transient connection failures are retried.
func (r *Repository) Create(ctx context.Context, report *Report) error {
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO reports (
				id, animal_type, latitude, longitude, address, prefecture, city,
				sub_area, area_key, images, description, phone_number, status,
				assigned_staff_id, observed_at, has_only_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, report.ID, report.AnimalType, report.Latitude, report.Longitude,
			report.Address, report.Prefecture, report.City, report.SubArea,
			report.AreaKey, report.Images, report.Description, report.PhoneNumber,
			report.Status, report.AssignedStaffID, report.ObservedAt,
			report.HasOnlyDate, report.CreatedAt, report.UpdatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID returns one undeleted report.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = $1 AND deleted_at IS NULL
	`, id)

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// List returns undeleted reports, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE deleted_at IS NULL`
	args := []interface{}{}
	if status != "" {
		query += ` AND status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// UpdateStatus sets a report's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET status = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignStaff records the auto-assigned (or operator-assigned) staff member.
func (r *Repository) AssignStaff(ctx context.Context, id uuid.UUID, staffID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET assigned_staff_id = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, staffID)
	if err != nil {
		return fmt.Errorf("assign staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a report deleted without removing the row.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (Report, error) {
	var report Report
	err := row.Scan(
		&report.ID, &report.AnimalType, &report.Latitude, &report.Longitude,
		&report.Address, &report.Prefecture, &report.City, &report.SubArea,
		&report.AreaKey, &report.Images, &report.Description, &report.PhoneNumber,
		&report.Status, &report.AssignedStaffID, &report.ObservedAt,
		&report.HasOnlyDate, &report.CreatedAt, &report.UpdatedAt, &report.DeletedAt,
	)
	return report, err
}
