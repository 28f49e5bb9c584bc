package models

import (
	"time"
)

// Device lifecycle statuses, in causal order. The four last ones are terminal.
const (
	DeviceStatusUploaded        = "uploaded"
	DeviceStatusPickupScheduled = "pickup_scheduled"
	DeviceStatusPickedUp        = "picked_up"
	DeviceStatusReceived        = "received"
	DeviceStatusProcessing      = "processing"
	DeviceStatusRefurbished     = "refurbished"
	DeviceStatusDonated         = "donated"
	DeviceStatusRecycled        = "recycled"
	DeviceStatusDisposed        = "disposed"
)

// Device conditions.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionBroken    = "broken"
)

// Disposition recommendations.
const (
	RecommendationDonate  = "donate"
	RecommendationRecycle = "recycle"
	RecommendationResell  = "resell"
	RecommendationRepair  = "repair"
)

// Device represents a submitted electronic item. Status is mutated only
// through the lifecycle service.
type Device struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	User           User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrganizationID *uint         `gorm:"index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	DeviceType     string        `gorm:"not null;size:100;index" json:"device_type"`
	Condition      string        `gorm:"size:50" json:"condition"`
	WeightKg       float64       `json:"weight_kg"`
	AgeYears       *int          `gorm:"default:2" json:"age_years"`
	Status         string        `gorm:"size:50;index;default:uploaded" json:"status"`
	EstimatedValue int           `json:"estimated_value"`
	Recommendation string        `gorm:"size:50" json:"recommendation"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for Device model.
func (Device) TableName() string {
	return "devices"
}

// IsTerminalDeviceStatus reports whether a status ends the device lifecycle.
func IsTerminalDeviceStatus(status string) bool {
	switch status {
	case DeviceStatusRefurbished, DeviceStatusDonated, DeviceStatusRecycled, DeviceStatusDisposed:
		return true
	}
	return false
}

// IsValidDeviceStatus reports whether status is on the lifecycle allow-list.
func IsValidDeviceStatus(status string) bool {
	switch status {
	case DeviceStatusUploaded, DeviceStatusPickupScheduled, DeviceStatusPickedUp,
		DeviceStatusReceived, DeviceStatusProcessing, DeviceStatusRefurbished,
		DeviceStatusDonated, DeviceStatusRecycled, DeviceStatusDisposed:
		return true
	}
	return false
}

// ImpactReport is the ledger entry quantifying the environmental savings of
// processing one device. The unique index on DeviceID enforces at most one
// report per device.
type ImpactReport struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DeviceID        uint      `gorm:"not null;uniqueIndex" json:"device_id"`
	Device          Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WaterSaved      float64   `json:"water_saved"`       // liters
	CO2Saved        float64   `json:"co2_saved"`         // kg
	ToxicWasteSaved float64   `json:"toxic_waste_saved"` // kg
	PointsAwarded   int       `json:"points_awarded"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for ImpactReport model.
func (ImpactReport) TableName() string {
	return "impact_reports"
}
