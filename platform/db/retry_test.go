package db

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransientClassifiesBySQLState(t *testing.T) {
	cases := []struct {
		code      string
		transient bool
	}{
		{"08006", true},  // connection failure
		{"53300", true},  // too many connections
		{"57P01", true},  // admin shutdown
		{"40001", true},  // serialization failure
		{"40P01", true},  // deadlock
		{"23505", false}, // unique violation
		{"23503", false}, // foreign key violation
		{"22P02", false}, // invalid text representation
		{"42601", false}, // syntax error
	}

	for _, tc := range cases {
		err := &pgconn.PgError{Code: tc.code}
		if got := IsTransient(err); got != tc.transient {
			t.Errorf("IsTransient(SQLSTATE %s) = %v, want %v", tc.code, got, tc.transient)
		}
	}
}

func TestIsTransientNetworkAndEOF(t *testing.T) {
	if !IsTransient(timeoutErr{}) {
		t.Error("net.Error not classified transient")
	}
	if !IsTransient(io.ErrUnexpectedEOF) {
		t.Error("unexpected EOF not classified transient")
	}
	if IsTransient(errors.New("connection refused")) {
		t.Error("message text alone classified as transient")
	}
	if IsTransient(nil) {
		t.Error("nil error classified transient")
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := &pgconn.PgError{Code: "23505"}
	calls := 0

	err := WithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want the permanent error", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on permanent error)", calls)
	}
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "08006"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("err = %v, want nil after recovery", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWithRetryExhaustsBoundedAttempts(t *testing.T) {
	transient := &pgconn.PgError{Code: "08006"}
	calls := 0

	err := WithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Fatalf("err = %v, want the transient error after exhaustion", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithRetryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, 3, time.Millisecond, func(context.Context) error {
		t.Fatal("fn ran under canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
