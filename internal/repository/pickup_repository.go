package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// PickupRepository handles pickup-related database operations.
type PickupRepository struct {
	db *DB
}

// NewPickupRepository creates a new pickup repository.
func NewPickupRepository(db *DB) *PickupRepository {
	return &PickupRepository{db: db}
}

// CreateTx creates a pickup within tx.
func (r *PickupRepository) CreateTx(tx *gorm.DB, pickup *models.Pickup) error {
	if err := tx.Create(pickup).Error; err != nil {
		return fmt.Errorf("failed to create pickup: %w", err)
	}
	return nil
}

// GetByID retrieves a pickup by ID.
func (r *PickupRepository) GetByID(id uint) (*models.Pickup, error) {
	var pickup models.Pickup
	if err := r.db.First(&pickup, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get pickup by id %d: %w", id, err)
	}
	return &pickup, nil
}

// GetByIDTx retrieves a pickup by ID within tx.
func (r *PickupRepository) GetByIDTx(tx *gorm.DB, id uint) (*models.Pickup, error) {
	var pickup models.Pickup
	if err := tx.First(&pickup, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get pickup by id %d: %w", id, err)
	}
	return &pickup, nil
}

// SaveTx persists a pickup within tx.
func (r *PickupRepository) SaveTx(tx *gorm.DB, pickup *models.Pickup) error {
	if err := tx.Save(pickup).Error; err != nil {
		return fmt.Errorf("failed to save pickup: %w", err)
	}
	return nil
}

// LinkDeviceTx creates a pickup-device junction row within tx.
func (r *PickupRepository) LinkDeviceTx(tx *gorm.DB, pickupID, deviceID uint) error {
	link := &models.PickupDevice{PickupID: pickupID, DeviceID: deviceID}
	if err := tx.Create(link).Error; err != nil {
		return fmt.Errorf("failed to link device %d to pickup %d: %w", deviceID, pickupID, err)
	}
	return nil
}

// CountActiveForDate counts pickups occupying a capacity slot for the
// (organization, date) pair, within tx. Must run after the organization row
// is locked so concurrent reservations serialize.
func (r *PickupRepository) CountActiveForDate(tx *gorm.DB, orgID uint, date time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.Pickup{}).
		Where("organization_id = ? AND pickup_date = ?", orgID, date).
		Where("status NOT IN ?", []string{models.PickupStatusCancelled, models.PickupStatusCompleted}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pickups for organization %d: %w", orgID, err)
	}
	return count, nil
}

// CountOpenForDevice counts open pickups referencing a device, within tx. A
// device may be linked to at most one non-terminal pickup.
func (r *PickupRepository) CountOpenForDevice(tx *gorm.DB, deviceID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.PickupDevice{}).
		Joins("JOIN pickups ON pickups.id = pickup_devices.pickup_id").
		Where("pickup_devices.device_id = ?", deviceID).
		Where("pickups.status NOT IN ?", []string{models.PickupStatusCancelled, models.PickupStatusCompleted}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count open pickups for device %d: %w", deviceID, err)
	}
	return count, nil
}

// CountCompletedByUser counts a user's completed pickups.
func (r *PickupRepository) CountCompletedByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Pickup{}).
		Where("user_id = ? AND status = ?", userID, models.PickupStatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed pickups: %w", err)
	}
	return count, nil
}

// ListByUser retrieves all pickups requested by a user.
func (r *PickupRepository) ListByUser(userID uint) ([]models.Pickup, error) {
	var pickups []models.Pickup
	err := r.db.
		Where("user_id = ?", userID).
		Order("pickup_date DESC").
		Find(&pickups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pickups for user %d: %w", userID, err)
	}
	return pickups, nil
}
