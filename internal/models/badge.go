package models

import (
	"encoding/json"
	"time"
)

// Badge types. Each type reads its own subset of criteria fields.
const (
	BadgeTypeRecycling     = "recycling"
	BadgeTypeDonation      = "donation"
	BadgeTypePickups       = "pickups"
	BadgeTypeEnvironmental = "environmental"
	BadgeTypeAchievement   = "achievement"
	BadgeTypeLoyalty       = "loyalty"
)

// Badge represents an achievement that can be earned by users.
type Badge struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Type         string          `gorm:"not null;size:50;index" json:"type"`
	Description  string          `gorm:"type:text" json:"description"`
	Icon         string          `gorm:"size:50" json:"icon"`
	RewardPoints int             `gorm:"not null;default:0" json:"reward_points"`
	Criteria     json.RawMessage `gorm:"type:jsonb" json:"criteria"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// BadgeCriteria carries the typed thresholds a badge may declare. Which
// fields are consulted depends on Badge.Type; a badge qualifies when any one
// of the thresholds present for its type is met.
type BadgeCriteria struct {
	DevicesRequired *int     `json:"devices_required,omitempty"`
	PickupsRequired *int     `json:"pickups_required,omitempty"`
	WaterRequired   *float64 `json:"water_required,omitempty"`
	CO2Required     *float64 `json:"co2_required,omitempty"`
	PointsRequired  *int     `json:"points_required,omitempty"`
	LevelRequired   *int     `json:"level_required,omitempty"`
	DaysRequired    *int     `json:"days_required,omitempty"`
}

// ParseCriteria decodes the badge's criteria JSON.
func (b *Badge) ParseCriteria() (*BadgeCriteria, error) {
	var criteria BadgeCriteria
	if len(b.Criteria) == 0 {
		return &criteria, nil
	}
	if err := json.Unmarshal(b.Criteria, &criteria); err != nil {
		return nil, err
	}
	return &criteria, nil
}

// UserBadge represents a badge earned by a user. Immutable once created; the
// unique index makes awarding idempotent.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;index;uniqueIndex:idx_user_badge" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BadgeID  uint      `gorm:"not null;index;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}
