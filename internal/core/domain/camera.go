package domain

import (
	"time"
)

// Camera represents a camera feed attached to a site.
type Camera struct {
	ID        string       `json:"id"`
	SiteID    string       `json:"site_id"`
	Name      string       `json:"name"`
	Location  string       `json:"location"`
	Status    CameraStatus `json:"status"`
	StreamURL string       `json:"stream_url"`
	CreatedAt time.Time    `json:"created_at"`
}

type CameraStatus string

const (
	CameraStatusOnline  CameraStatus = "online"
	CameraStatusOffline CameraStatus = "offline"
)
