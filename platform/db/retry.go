// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// DefaultRetryAttempts bounds retries for transient database failures.
	DefaultRetryAttempts = 3
	// DefaultRetryBaseDelay is the first backoff delay; subsequent delays
	// grow quadratically with the attempt number.
	DefaultRetryBaseDelay = 200 * time.Millisecond
)

// IsTransient reports whether err is a connection-level failure worth
// retrying. Classification is structural (SQLSTATE classes and error types),
// never based on message text. Constraint violations and other permanent
// errors return false and must propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := pgErr.SQLState()
		switch {
		case strings.HasPrefix(code, "08"): // connection exception
			return true
		case strings.HasPrefix(code, "53"): // insufficient resources (pool/conn limits)
			return true
		case code == "57P01", code == "57P02", code == "57P03": // server shutdown / cannot connect now
			return true
		case code == "40001", code == "40P01": // serialization failure, deadlock
			return true
		}
		return false
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.ErrUnexpectedEOF)
}

// WithRetry runs fn, retrying transient failures with exponential backoff.
// Permanent errors and context cancellation end the loop immediately.
func WithRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}
