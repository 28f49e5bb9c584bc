package models

import (
	"time"
)

// Pickup statuses.
const (
	PickupStatusScheduled   = "scheduled"
	PickupStatusConfirmed   = "confirmed"
	PickupStatusInProgress  = "in_progress"
	PickupStatusCompleted   = "completed"
	PickupStatusCancelled   = "cancelled"
	PickupStatusRescheduled = "rescheduled"
)

// Pickup represents a scheduled logistics event binding one user, one
// organization, a date and one or more devices.
type Pickup struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;index" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrganizationID uint         `gorm:"not null;index" json:"organization_id"`
	Organization   Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	PickupDate     time.Time    `gorm:"type:date;not null;index" json:"pickup_date"`
	Address        string       `gorm:"type:text" json:"address"`
	Status         string       `gorm:"size:50;index;default:scheduled" json:"status"`
	TotalDevices   int          `gorm:"not null;default:0" json:"total_devices"`
	TotalWeightKg  float64      `gorm:"not null;default:0" json:"total_weight_kg"`
	Rating         *int         `json:"rating"` // 1..5, settable once after completion
	ActualPickupAt *time.Time   `json:"actual_pickup_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`

	// Relationships
	Devices []PickupDevice `gorm:"foreignKey:PickupID" json:"devices,omitempty"`
}

// TableName specifies the table name for Pickup model.
func (Pickup) TableName() string {
	return "pickups"
}

// IsTerminal reports whether the pickup has reached a terminal status.
func (p *Pickup) IsTerminal() bool {
	return p.Status == PickupStatusCompleted || p.Status == PickupStatusCancelled
}

// CountsAgainstCapacity reports whether the pickup occupies a daily capacity
// slot for its (organization, date) pair.
func (p *Pickup) CountsAgainstCapacity() bool {
	return p.Status != PickupStatusCancelled && p.Status != PickupStatusCompleted
}

// PickupDevice links a device to a pickup. The unique index keeps a device in
// at most one row per pickup; openness is enforced by the scheduler.
type PickupDevice struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PickupID uint   `gorm:"not null;index;uniqueIndex:idx_pickup_device" json:"pickup_id"`
	Pickup   Pickup `gorm:"foreignKey:PickupID" json:"pickup,omitempty"`
	DeviceID uint   `gorm:"not null;index;uniqueIndex:idx_pickup_device" json:"device_id"`
	Device   Device `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
}

// TableName specifies the table name for PickupDevice model.
func (PickupDevice) TableName() string {
	return "pickup_devices"
}
