package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecocycle/ecocycle/internal/models"
)

// ChallengeRepository handles challenge-related database operations.
type ChallengeRepository struct {
	db *DB
}

// NewChallengeRepository creates a new challenge repository.
func NewChallengeRepository(db *DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create creates a new challenge.
func (r *ChallengeRepository) Create(challenge *models.Challenge) error {
	if err := r.db.Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// GetByID retrieves a challenge by ID.
func (r *ChallengeRepository) GetByID(id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.First(&challenge, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get challenge by id %d: %w", id, err)
	}
	return &challenge, nil
}

// CreateProgress creates a user's progress row for a challenge.
func (r *ChallengeRepository) CreateProgress(progress *models.UserChallengeProgress) error {
	if err := r.db.Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create challenge progress: %w", err)
	}
	return nil
}

// HasJoined checks whether the user already has a progress row.
func (r *ChallengeRepository) HasJoined(userID, challengeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListJoinedOpenByType retrieves, within tx and under row locks, the user's
// uncompleted progress rows for challenges of the given type whose window
// contains now. The challenge is preloaded for target/reward evaluation.
func (r *ChallengeRepository) ListJoinedOpenByType(tx *gorm.DB, userID uint, challengeType string, now time.Time) ([]models.UserChallengeProgress, error) {
	var rows []models.UserChallengeProgress
	err := lockForUpdate(tx).
		Joins("JOIN challenges ON challenges.id = user_challenge_progress.challenge_id").
		Where("user_challenge_progress.user_id = ?", userID).
		Where("user_challenge_progress.completed = ?", false).
		Where("challenges.type = ? AND challenges.active = ?", challengeType, true).
		Where("challenges.starts_at <= ? AND challenges.ends_at > ?", now, now).
		Preload("Challenge").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open challenge progress: %w", err)
	}
	return rows, nil
}

// SaveProgressTx persists a progress row within tx. Associations are omitted
// so a preloaded Challenge is never written back.
func (r *ChallengeRepository) SaveProgressTx(tx *gorm.DB, progress *models.UserChallengeProgress) error {
	if err := tx.Omit(clause.Associations).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to save challenge progress: %w", err)
	}
	return nil
}

// ListProgressByUser retrieves all of a user's challenge progress rows.
func (r *ChallengeRepository) ListProgressByUser(userID uint) ([]models.UserChallengeProgress, error) {
	var rows []models.UserChallengeProgress
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Challenge").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge progress for user %d: %w", userID, err)
	}
	return rows, nil
}

// DeactivateEnded marks challenges whose window has closed as inactive and
// returns the number of rows changed.
func (r *ChallengeRepository) DeactivateEnded(now time.Time) (int64, error) {
	result := r.db.Model(&models.Challenge{}).
		Where("active = ? AND ends_at <= ?", true, now).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate ended challenges: %w", result.Error)
	}
	return result.RowsAffected, nil
}
