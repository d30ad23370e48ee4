package domain

import (
	"time"
)

// User represents an authenticated operator of the monitoring platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleSiteManager UserRole = "site_manager"
	RoleViewer      UserRole = "viewer"
)
