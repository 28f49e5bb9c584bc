// Package models defines domain models for the eco-impact engine.
package models

import (
	"time"
)

// User roles.
const (
	RoleUser         = "user"
	RoleOrganization = "organization"
	RoleAdmin        = "admin"
)

// User represents a platform account. The engine owns only the Points and
// Level columns; identity fields belong to the account subsystem.
// OrganizationID links organization-role accounts to their organization.
// Active has no gorm default tag: with one set, gorm omits the zero value
// on insert and an explicit false would be stored as true.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email          string    `gorm:"size:255" json:"email"`
	Role           string    `gorm:"size:50;default:user" json:"role"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	Points         int       `gorm:"not null;default:0" json:"points"`
	Level          int       `gorm:"not null;default:0" json:"level"`
	Active         bool      `gorm:"not null" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
