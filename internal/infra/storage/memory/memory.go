package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
	"github.com/vietddude/sitewatch/internal/infra/storage"
)

// MemoryStorage implements storage.AlertRepository in process memory. Used
// when no database is configured and in tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	alerts map[string]*domain.Alert
}

// NewMemoryStorage creates an empty in-memory alert archive.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{alerts: make(map[string]*domain.Alert)}
}

// Save upserts an alert.
func (m *MemoryStorage) Save(ctx context.Context, alert *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *alert
	m.alerts[alert.ID] = &cp
	return nil
}

// SaveBatch upserts multiple alerts.
func (m *MemoryStorage) SaveBatch(ctx context.Context, alerts []*domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alert := range alerts {
		cp := *alert
		m.alerts[alert.ID] = &cp
	}
	return nil
}

// GetByID retrieves an archived alert.
func (m *MemoryStorage) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alert, ok := m.alerts[id]
	if !ok {
		return nil, storage.ErrAlertNotFound
	}
	cp := *alert
	return &cp, nil
}

// ListBySite returns the most recent archived alerts for a site.
func (m *MemoryStorage) ListBySite(ctx context.Context, siteID string, limit int) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Alert
	for _, alert := range m.alerts {
		if alert.SiteID == siteID {
			cp := *alert
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestDetectedAt returns the newest detection time archived for a site.
func (m *MemoryStorage) LatestDetectedAt(ctx context.Context, siteID string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for _, alert := range m.alerts {
		if alert.SiteID == siteID && alert.DetectedAt.After(latest) {
			latest = alert.DetectedAt
		}
	}
	return latest, nil
}

// DeleteOlderThan removes alerts detected before cutoff.
func (m *MemoryStorage) DeleteOlderThan(ctx context.Context, siteID string, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, alert := range m.alerts {
		if alert.SiteID == siteID && alert.DetectedAt.Before(cutoff) {
			delete(m.alerts, id)
			n++
		}
	}
	return n, nil
}
