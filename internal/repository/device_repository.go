package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// DeviceRepository handles device-related database operations.
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository.
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create creates a new device.
func (r *DeviceRepository) Create(device *models.Device) error {
	if err := r.db.Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by ID.
func (r *DeviceRepository) GetByID(id uint) (*models.Device, error) {
	var device models.Device
	if err := r.db.First(&device, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get device by id %d: %w", id, err)
	}
	return &device, nil
}

// GetByIDTx retrieves a device by ID within tx.
func (r *DeviceRepository) GetByIDTx(tx *gorm.DB, id uint) (*models.Device, error) {
	var device models.Device
	if err := tx.First(&device, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get device by id %d: %w", id, err)
	}
	return &device, nil
}

// ListByIDsAndUser retrieves the devices with the given IDs that belong to
// the user, within tx.
func (r *DeviceRepository) ListByIDsAndUser(tx *gorm.DB, ids []uint, userID uint) ([]models.Device, error) {
	var devices []models.Device
	err := tx.
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// ListByUser retrieves all devices owned by a user.
func (r *DeviceRepository) ListByUser(userID uint) ([]models.Device, error) {
	var devices []models.Device
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices for user %d: %w", userID, err)
	}
	return devices, nil
}

// SaveTx persists a device within tx.
func (r *DeviceRepository) SaveTx(tx *gorm.DB, device *models.Device) error {
	if err := tx.Save(device).Error; err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}
	return nil
}

// CountByUserAndStatus counts a user's devices in the given status.
func (r *DeviceRepository) CountByUserAndStatus(userID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Device{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return count, nil
}

// ListByPickup retrieves the devices linked to a pickup, within tx.
func (r *DeviceRepository) ListByPickup(tx *gorm.DB, pickupID uint) ([]models.Device, error) {
	var devices []models.Device
	err := tx.
		Joins("JOIN pickup_devices ON pickup_devices.device_id = devices.id").
		Where("pickup_devices.pickup_id = ?", pickupID).
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices for pickup %d: %w", pickupID, err)
	}
	return devices, nil
}
