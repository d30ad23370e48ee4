package session

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
)

// ErrNoSession is returned by Store.Load when no session is persisted.
var ErrNoSession = errors.New("session: no active session")

// Session is the persisted credential record. It is replace-only: a refresh
// or re-login saves a whole new record, never mutates the old one in place.
type Session struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         domain.User `json:"user"`
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists the session record in durable client-side storage.
//
// Clear must remove the token, refresh token and metadata together: a
// subsequent Load must never observe a partially cleared record.
type Store interface {
	// Load returns the current session, or ErrNoSession.
	Load(ctx context.Context) (*Session, error)

	// Save replaces the stored session.
	Save(ctx context.Context, s *Session) error

	// Clear removes the stored session. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
