package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/sitewatch/internal/infra/session"
)

func TestConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	var refreshHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"alerts":[]}`))
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		// Hold the exchange open long enough for all in-flight 401s to
		// join the same singleflight call.
		time.Sleep(150 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "fresh"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewMemoryStore()
	_ = store.Save(context.Background(), &session.Session{Token: "stale", RefreshToken: "ref-1"})

	c, _ := newTestClient(srv.URL, store)

	const workers = 5
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Alerts(context.Background(), AlertFilter{})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Errorf("concurrent request failed: %v", err)
		}
	}
	if n := refreshHits.Load(); n != 1 {
		t.Errorf("refresh exchange hit %d times, want 1", n)
	}
}

func TestRefreshExchangeUnauthorizedClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := session.NewMemoryStore()
	_ = store.Save(context.Background(), &session.Session{Token: "stale", RefreshToken: "revoked"})

	c, _ := newTestClient(srv.URL, store)
	err := c.Do(context.Background(), http.MethodGet, "/alerts", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("err = %v, want *Error with 401", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("session survived a rejected refresh exchange: %v", err)
	}
}
