package models

import (
	"time"
)

// Challenge types. Progress events are routed by type.
const (
	ChallengeTypeRecycling = "recycling"
	ChallengeTypeDonation  = "donation"
	ChallengeTypePickups   = "pickups"
)

// Challenge is a time-boxed, opt-in goal with a shared target and individual
// progress tracking.
type Challenge struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Type         string    `gorm:"not null;size:50;index" json:"type"`
	TargetValue  int       `gorm:"not null" json:"target_value"`
	RewardPoints int       `gorm:"not null;default:0" json:"reward_points"`
	StartsAt     time.Time `gorm:"not null" json:"starts_at"`
	EndsAt       time.Time `gorm:"not null" json:"ends_at"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Challenge model.
func (Challenge) TableName() string {
	return "challenges"
}

// IsOpen reports whether the challenge accepts progress at the given time.
func (c *Challenge) IsOpen(at time.Time) bool {
	return c.Active && !at.Before(c.StartsAt) && at.Before(c.EndsAt)
}

// UserChallengeProgress tracks one user's progress in a challenge. Progress
// never decreases and Completed is a one-way latch.
type UserChallengeProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index;uniqueIndex:idx_user_challenge" json:"user_id"`
	User            User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID     uint       `gorm:"not null;index;uniqueIndex:idx_user_challenge" json:"challenge_id"`
	Challenge       Challenge  `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	CurrentProgress int        `gorm:"not null;default:0" json:"current_progress"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	JoinedAt        time.Time  `gorm:"not null" json:"joined_at"`
}

// TableName specifies the table name for UserChallengeProgress model.
func (UserChallengeProgress) TableName() string {
	return "user_challenge_progress"
}
