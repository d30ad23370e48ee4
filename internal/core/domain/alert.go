package domain

import (
	"time"
)

// Alert represents a safety alert raised by a camera on a site.
type Alert struct {
	ID         string        `json:"id"`
	SiteID     string        `json:"site_id"`
	CameraID   string        `json:"camera_id"`
	Type       string        `json:"type"` // e.g., "no_helmet", "restricted_zone"
	Severity   AlertSeverity `json:"severity"`
	Status     AlertStatus   `json:"status"`
	Message    string        `json:"message"`
	DetectedAt time.Time     `json:"detected_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusInProgress   AlertStatus = "in_progress"
	AlertStatusResolved     AlertStatus = "resolved"
)

// SeverityRank orders severities for aggregation (higher = worse).
var SeverityRank = map[AlertSeverity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}
