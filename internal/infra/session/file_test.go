package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load on empty store = %v, want ErrNoSession", err)
	}

	s := &Session{
		Token:        "tok-1",
		RefreshToken: "ref-1",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		User:         domain.User{ID: "u-1", Email: "ops@example.com"},
	}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Token != s.Token || got.RefreshToken != s.RefreshToken || got.User.Email != s.User.Email {
		t.Errorf("loaded session = %+v, want %+v", got, s)
	}
	if !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, s.ExpiresAt)
	}
}

func TestFileStoreSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_ = store.Save(ctx, &Session{Token: "old", RefreshToken: "old-ref"})
	_ = store.Save(ctx, &Session{Token: "new"})

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Token != "new" {
		t.Errorf("Token = %q, want %q", got.Token, "new")
	}
	// Replacement, not merge: the old refresh token must be gone.
	if got.RefreshToken != "" {
		t.Errorf("RefreshToken = %q, want empty", got.RefreshToken)
	}
}

func TestFileStoreClearIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_ = store.Save(ctx, &Session{Token: "tok"})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("first Clear failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load after Clear = %v, want ErrNoSession", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Load of corrupt file succeeded, want error")
	}
	// Clear must still work so the invalidator can recover the state.
	if err := store.Clear(context.Background()); err != nil {
		t.Errorf("Clear of corrupt file failed: %v", err)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future", now.Add(time.Hour), false},
		{"past", now.Add(-time.Hour), true},
		{"zero means unknown", time.Time{}, false},
	}
	for _, tt := range tests {
		s := &Session{Token: "x", ExpiresAt: tt.expires}
		if got := s.Expired(now); got != tt.want {
			t.Errorf("%s: Expired = %v, want %v", tt.name, got, tt.want)
		}
	}
}
