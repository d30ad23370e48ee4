package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/sitewatch/internal/metrics"
)

// Invalidator tears down the persisted session and notifies the session
// owner. It runs inside error-handling paths, so it never lets a secondary
// storage failure escape and mask the primary error.
type Invalidator struct {
	store   Store
	onEnded func()
	log     *slog.Logger
}

// NewInvalidator creates an Invalidator. onEnded is the "session ended"
// notification supplied by the owner (may be nil).
func NewInvalidator(store Store, onEnded func(), log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.Default()
	}
	return &Invalidator{store: store, onEnded: onEnded, log: log}
}

// Invalidate removes all persisted session artifacts and fires the
// session-ended notification if a session actually existed. Idempotent:
// invalidating an empty store is a no-op.
func (i *Invalidator) Invalidate(ctx context.Context) {
	had := false
	if _, err := i.store.Load(ctx); err == nil {
		had = true
	} else if !errors.Is(err, ErrNoSession) {
		// A corrupt record still gets cleared below.
		i.log.Warn("failed to read session before invalidation", "error", err)
		had = true
	}

	if err := i.store.Clear(ctx); err != nil {
		i.log.Error("failed to clear session storage", "error", err)
	}

	if had && i.onEnded != nil {
		i.onEnded()
	}
	if had {
		metrics.SessionInvalidations.Inc()
		i.log.Info("session invalidated")
	}
}
