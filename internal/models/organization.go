package models

import (
	"strings"
	"time"
)

// Organization verification statuses.
const (
	OrgStatusPending  = "pending"
	OrgStatusVerified = "verified"
	OrgStatusRejected = "rejected"
)

// Organization represents a recycling organization (NGO) that receives and
// processes devices. Rating and TotalReviews form a running average that is
// only updated under a row lock.
type Organization struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Status         string    `gorm:"size:50;index;default:pending" json:"status"`
	Active         bool      `gorm:"not null" json:"active"`
	Address        string    `gorm:"type:text" json:"address"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	Services       string    `gorm:"type:text" json:"services"` // comma-separated service tags
	CapacityPerDay int       `gorm:"not null;default:10" json:"capacity_per_day"`
	Rating         float64   `gorm:"not null;default:0" json:"rating"`
	TotalReviews   int       `gorm:"not null;default:0" json:"total_reviews"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Organization model.
func (Organization) TableName() string {
	return "organizations"
}

// IsOperational reports whether the organization may participate in
// scheduling and proximity matching.
func (o *Organization) IsOperational() bool {
	return o.Status == OrgStatusVerified && o.Active
}

// HasCoordinates reports whether the organization has a known location.
func (o *Organization) HasCoordinates() bool {
	return o.Latitude != nil && o.Longitude != nil
}

// ServiceList returns the organization's service tags.
func (o *Organization) ServiceList() []string {
	if o.Services == "" {
		return nil
	}
	parts := strings.Split(o.Services, ",")
	services := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			services = append(services, s)
		}
	}
	return services
}

// OffersAny reports whether the organization offers at least one of the
// requested services. An empty request matches everything.
func (o *Organization) OffersAny(requested []string) bool {
	if len(requested) == 0 {
		return true
	}
	offered := make(map[string]bool)
	for _, s := range o.ServiceList() {
		offered[strings.ToLower(s)] = true
	}
	for _, r := range requested {
		if offered[strings.ToLower(strings.TrimSpace(r))] {
			return true
		}
	}
	return false
}
