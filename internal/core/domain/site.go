package domain

import (
	"time"
)

// Site represents a monitored construction site.
type Site struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Status    SiteStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SiteStatus string

const (
	SiteStatusActive   SiteStatus = "active"
	SiteStatusPaused   SiteStatus = "paused"
	SiteStatusArchived SiteStatus = "archived"
)
