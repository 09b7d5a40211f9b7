package session

import (
	"context"
	"errors"
	"fmt"

	"wildguard_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no live session exists for a user.
// Expired rows are never returned, regardless of whether the sweep has
// physically purged them.
var ErrNotFound = errors.New("session not found")

// Repository provides database operations for conversation sessions.
// Transient connection failures are retried with bounded backoff; permanent
// errors propagate immediately.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new session repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Find returns the live (non-expired) session for a messenger user.
func (r *Repository) Find(ctx context.Context, userID string) (Session, error) {
	var s Session
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		return r.pool.QueryRow(ctx, `
			SELECT id, line_user_id, step, fields, created_at, updated_at, expires_at
			FROM line_sessions
			WHERE line_user_id = $1 AND expires_at > now()
		`, userID).Scan(&s.ID, &s.UserID, &s.Step, &s.Fields, &s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// Save upserts the session keyed by user id. Concurrent deliveries for the
// same user resolve last-write-wins on updated_at.
func (r *Repository) Save(ctx context.Context, s *Session) error {
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO line_sessions (id, line_user_id, step, fields, created_at, updated_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (line_user_id) DO UPDATE SET
				step = EXCLUDED.step,
				fields = EXCLUDED.fields,
				updated_at = EXCLUDED.updated_at,
				expires_at = EXCLUDED.expires_at
		`, s.ID, s.UserID, s.Step, s.Fields, s.CreatedAt, s.UpdatedAt, s.ExpiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a user's session row. Deleting an absent session is not
// an error.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `DELETE FROM line_sessions WHERE line_user_id = $1`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges rows past their expiry. Correctness never depends on
// this sweep; Find already filters expired rows.
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	var purged int64
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM line_sessions WHERE expires_at <= now()`)
		if err != nil {
			return err
		}
		purged = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return purged, nil
}
