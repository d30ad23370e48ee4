package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
	"github.com/vietddude/sitewatch/internal/infra/storage"
)

// AlertRepo implements storage.AlertRepository using PostgreSQL.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new PostgreSQL alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

type alertRow struct {
	ID         string    `db:"id"`
	SiteID     string    `db:"site_id"`
	CameraID   string    `db:"camera_id"`
	Type       string    `db:"type"`
	Severity   string    `db:"severity"`
	Status     string    `db:"status"`
	Message    string    `db:"message"`
	DetectedAt time.Time `db:"detected_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r alertRow) toDomain() *domain.Alert {
	return &domain.Alert{
		ID:         r.ID,
		SiteID:     r.SiteID,
		CameraID:   r.CameraID,
		Type:       r.Type,
		Severity:   domain.AlertSeverity(r.Severity),
		Status:     domain.AlertStatus(r.Status),
		Message:    r.Message,
		DetectedAt: r.DetectedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const upsertAlertQuery = `
	INSERT INTO alerts (id, site_id, camera_id, type, severity, status, message, detected_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		message = EXCLUDED.message,
		updated_at = EXCLUDED.updated_at
`

// Save upserts an alert.
func (r *AlertRepo) Save(ctx context.Context, alert *domain.Alert) error {
	_, err := r.db.ExecContext(
		ctx,
		upsertAlertQuery,
		alert.ID,
		alert.SiteID,
		alert.CameraID,
		alert.Type,
		string(alert.Severity),
		string(alert.Status),
		alert.Message,
		alert.DetectedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// SaveBatch upserts multiple alerts in one transaction.
func (r *AlertRepo) SaveBatch(ctx context.Context, alerts []*domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, alert := range alerts {
		if _, err := tx.ExecContext(
			ctx,
			upsertAlertQuery,
			alert.ID,
			alert.SiteID,
			alert.CameraID,
			alert.Type,
			string(alert.Severity),
			string(alert.Status),
			alert.Message,
			alert.DetectedAt,
			alert.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save alert %s: %w", alert.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

// GetByID retrieves an archived alert.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `
		SELECT id, site_id, camera_id, type, severity, status, message, detected_at, updated_at
		FROM alerts
		WHERE id = $1
	`

	var row alertRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, storage.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return row.toDomain(), nil
}

// ListBySite returns the most recent archived alerts for a site.
func (r *AlertRepo) ListBySite(ctx context.Context, siteID string, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, site_id, camera_id, type, severity, status, message, detected_at, updated_at
		FROM alerts
		WHERE site_id = $1
		ORDER BY detected_at DESC
		LIMIT $2
	`

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, siteID, limit); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	out := make([]*domain.Alert, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// LatestDetectedAt returns the newest detection time archived for a site.
func (r *AlertRepo) LatestDetectedAt(ctx context.Context, siteID string) (time.Time, error) {
	query := `SELECT COALESCE(MAX(detected_at), 'epoch'::timestamptz) FROM alerts WHERE site_id = $1`

	var latest time.Time
	if err := r.db.GetContext(ctx, &latest, query, siteID); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest detection: %w", err)
	}
	if latest.Unix() <= 0 {
		return time.Time{}, nil
	}
	return latest, nil
}

// DeleteOlderThan removes alerts detected before cutoff.
func (r *AlertRepo) DeleteOlderThan(ctx context.Context, siteID string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM alerts WHERE site_id = $1 AND detected_at < $2`

	res, err := r.db.ExecContext(ctx, query, siteID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted alerts: %w", err)
	}
	return n, nil
}
