package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vietddude/sitewatch/internal/core/domain"
	"github.com/vietddude/sitewatch/internal/infra/session"
)

// authPayload is the shape returned by /auth/login and /auth/refresh.
type authPayload struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         domain.User `json:"user"`
}

func (a authPayload) session() *session.Session {
	return &session.Session{
		Token:        a.Token,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
		User:         a.User,
	}
}

// Login authenticates against the backend and persists the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	var auth authPayload
	body := map[string]string{"email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/auth/login", body, &auth); err != nil {
		return nil, err
	}

	s := auth.session()
	if err := c.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return s, nil
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AlertFilter narrows an alert listing.
type AlertFilter struct {
	SiteID   string
	Status   domain.AlertStatus
	Severity domain.AlertSeverity
	Since    time.Time
	Limit    int
}

func (f AlertFilter) query() string {
	q := url.Values{}
	if f.SiteID != "" {
		q.Set("site_id", f.SiteID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Severity != "" {
		q.Set("severity", string(f.Severity))
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Alerts lists alerts matching the filter.
func (c *Client) Alerts(ctx context.Context, f AlertFilter) ([]domain.Alert, error) {
	var p struct {
		Alerts []domain.Alert `json:"alerts"`
	}
	if err := c.Do(ctx, http.MethodGet, "/alerts"+f.query(), nil, &p); err != nil {
		return nil, err
	}
	return p.Alerts, nil
}

// UpdateAlertStatus transitions an alert to a new status.
func (c *Client) UpdateAlertStatus(ctx context.Context, alertID string, status domain.AlertStatus) (*domain.Alert, error) {
	var a domain.Alert
	body := map[string]string{"status": string(status)}
	path := "/alerts/" + url.PathEscape(alertID)
	if err := c.Do(ctx, http.MethodPatch, path, body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Sites lists the sites visible to the authenticated user.
func (c *Client) Sites(ctx context.Context) ([]domain.Site, error) {
	var p struct {
		Sites []domain.Site `json:"sites"`
	}
	if err := c.Do(ctx, http.MethodGet, "/sites", nil, &p); err != nil {
		return nil, err
	}
	return p.Sites, nil
}

// Cameras lists the cameras attached to a site.
func (c *Client) Cameras(ctx context.Context, siteID string) ([]domain.Camera, error) {
	var p struct {
		Cameras []domain.Camera `json:"cameras"`
	}
	path := "/sites/" + url.PathEscape(siteID) + "/cameras"
	if err := c.Do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return p.Cameras, nil
}

// BackendHealth is the backend's self-reported status.
type BackendHealth struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) (*BackendHealth, error) {
	var h BackendHealth
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
