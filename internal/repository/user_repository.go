package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// Update updates a user.
func (r *UserRepository) Update(user *models.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// ListActive retrieves all active users.
func (r *UserRepository) ListActive() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("active = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}

// GetForUpdate loads a user row under a FOR UPDATE lock inside tx. Callers
// serialize every point credit per user through this lock.
func (r *UserRepository) GetForUpdate(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := lockForUpdate(tx).First(&user, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return &user, nil
}

// SaveTx persists a user within tx.
func (r *UserRepository) SaveTx(tx *gorm.DB, user *models.User) error {
	if err := tx.Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// CountActiveWithMorePoints counts active users holding strictly more points
// than the given total, optionally restricted to accounts created after since.
func (r *UserRepository) CountActiveWithMorePoints(points int, since *time.Time) (int64, error) {
	query := r.db.Model(&models.User{}).
		Where("active = ? AND points > ?", true, points)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users by points: %w", err)
	}
	return count, nil
}

// ListTopByPoints returns a page of active users ordered by points descending,
// optionally restricted to accounts created after since.
func (r *UserRepository) ListTopByPoints(since *time.Time, offset, limit int) ([]models.User, error) {
	query := r.db.Model(&models.User{}).Where("active = ?", true)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var users []models.User
	err := query.
		Order("points DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top users: %w", err)
	}
	return users, nil
}
