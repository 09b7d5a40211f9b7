// Package session persists per-user conversation state with expiry.
// A session is exclusively owned by the conversation state machine; no
// other component mutates it.
package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is one user's in-progress report conversation. Fields holds the
// partially collected report as JSON owned by the conversation package.
type Session struct {
	ID        uuid.UUID       `db:"id"`
	UserID    string          `db:"line_user_id"`
	Step      string          `db:"step"`
	Fields    json.RawMessage `db:"fields"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
	ExpiresAt time.Time       `db:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given
// instant. Expired sessions are treated identically to absent ones.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
