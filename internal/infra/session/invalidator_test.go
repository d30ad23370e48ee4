package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvalidateIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Save(ctx, &Session{Token: "tok", RefreshToken: "ref"})

	var ended int
	inv := NewInvalidator(store, func() { ended++ }, testLogger())

	inv.Invalidate(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("session not cleared: %v", err)
	}
	if ended != 1 {
		t.Fatalf("ended = %d, want 1", ended)
	}

	// Second call with no session recreated: same end state, no second
	// notification, no error.
	inv.Invalidate(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("state changed on second invalidation: %v", err)
	}
	if ended != 1 {
		t.Errorf("ended = %d after second call, want 1", ended)
	}
}

func TestInvalidateWithNilCallback(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Save(context.Background(), &Session{Token: "tok"})

	inv := NewInvalidator(store, nil, testLogger())
	inv.Invalidate(context.Background())

	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("session not cleared: %v", err)
	}
}

// failingStore simulates broken durable storage.
type failingStore struct{}

func (failingStore) Load(ctx context.Context) (*Session, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Save(ctx context.Context, s *Session) error {
	return errors.New("disk on fire")
}

func (failingStore) Clear(ctx context.Context) error {
	return errors.New("disk on fire")
}

func TestInvalidateSwallowsStorageFailures(t *testing.T) {
	var ended int
	inv := NewInvalidator(failingStore{}, func() { ended++ }, testLogger())

	// Must not panic or propagate: this runs inside error handling, where
	// a secondary failure must not mask the primary one.
	inv.Invalidate(context.Background())

	if ended != 1 {
		t.Errorf("ended = %d, want 1 (unreadable store is treated as live)", ended)
	}
}
