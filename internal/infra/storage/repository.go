package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
)

var (
	// ErrAlertNotFound is returned when an alert doesn't exist in the archive.
	ErrAlertNotFound = errors.New("alert not found")
)

// AlertRepository handles archived alert storage operations.
type AlertRepository interface {
	// Save upserts an alert (new detections insert, status changes update).
	Save(ctx context.Context, alert *domain.Alert) error

	// SaveBatch upserts multiple alerts.
	SaveBatch(ctx context.Context, alerts []*domain.Alert) error

	// GetByID retrieves an archived alert.
	GetByID(ctx context.Context, id string) (*domain.Alert, error)

	// ListBySite returns the most recent archived alerts for a site.
	ListBySite(ctx context.Context, siteID string, limit int) ([]*domain.Alert, error)

	// LatestDetectedAt returns the newest detection time archived for a
	// site, or the zero time when the archive is empty.
	LatestDetectedAt(ctx context.Context, siteID string) (time.Time, error)

	// DeleteOlderThan removes alerts detected before cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, siteID string, cutoff time.Time) (int64, error)
}
