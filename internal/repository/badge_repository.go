package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecocycle/ecocycle/internal/models"
)

// BadgeRepository handles badge-related database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create creates a new badge.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	if err := r.db.Create(badge).Error; err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// GetByID retrieves a badge by its ID.
func (r *BadgeRepository) GetByID(id uint) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.First(&badge, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get badge by id %d: %w", id, err)
	}
	return &badge, nil
}

// GetAll retrieves all badges.
func (r *BadgeRepository) GetAll() ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Order("created_at ASC").Find(&badges).Error
	return badges, err
}

// AwardTx inserts an earned-badge record within tx. The unique
// (user, badge) index plus DO NOTHING makes a duplicate award a no-op;
// awarded reports whether a new row was written.
func (r *BadgeRepository) AwardTx(tx *gorm.DB, userID, badgeID uint) (awarded bool, err error) {
	userBadge := &models.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now(),
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(userBadge)
	if result.Error != nil {
		return false, fmt.Errorf("failed to award badge %d to user %d: %w", badgeID, userID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// HasUserEarnedBadge checks if a user has earned a specific badge.
func (r *BadgeRepository) HasUserEarnedBadge(userID, badgeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserBadges retrieves all badges earned by a user with details preloaded.
func (r *BadgeRepository) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	var userBadges []models.UserBadge
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC").
		Find(&userBadges).Error
	return userBadges, err
}

// GetBadgeHoldersCount returns the number of users who earned a badge.
func (r *BadgeRepository) GetBadgeHoldersCount(badgeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("badge_id = ?", badgeID).
		Count(&count).Error
	return count, err
}

// GetUserBadgeCount returns the total number of badges a user has earned.
func (r *BadgeRepository) GetUserBadgeCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
