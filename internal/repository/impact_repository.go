package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// ImpactRepository handles impact report database operations.
type ImpactRepository struct {
	db *DB
}

// NewImpactRepository creates a new impact repository.
func NewImpactRepository(db *DB) *ImpactRepository {
	return &ImpactRepository{db: db}
}

// CreateTx writes an impact report within tx. The unique index on device_id
// rejects a second report for the same device.
func (r *ImpactRepository) CreateTx(tx *gorm.DB, report *models.ImpactReport) error {
	if err := tx.Create(report).Error; err != nil {
		return fmt.Errorf("failed to create impact report: %w", err)
	}
	return nil
}

// ExistsForDevice reports whether a device already has an impact report,
// within tx.
func (r *ImpactRepository) ExistsForDevice(tx *gorm.DB, deviceID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.ImpactReport{}).
		Where("device_id = ?", deviceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check impact report for device %d: %w", deviceID, err)
	}
	return count > 0, nil
}

// ListByUser retrieves all impact reports attributed to a user.
func (r *ImpactRepository) ListByUser(userID uint) ([]models.ImpactReport, error) {
	var reports []models.ImpactReport
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list impact reports for user %d: %w", userID, err)
	}
	return reports, nil
}

// UserTotals holds a user's cumulative environmental savings.
type UserTotals struct {
	WaterSaved      float64
	CO2Saved        float64
	ToxicWasteSaved float64
	PointsAwarded   int
}

// SumByUser aggregates a user's cumulative savings across all reports.
func (r *ImpactRepository) SumByUser(userID uint) (*UserTotals, error) {
	var totals UserTotals
	err := r.db.Model(&models.ImpactReport{}).
		Select(
			"COALESCE(SUM(water_saved), 0) AS water_saved",
			"COALESCE(SUM(co2_saved), 0) AS co2_saved",
			"COALESCE(SUM(toxic_waste_saved), 0) AS toxic_waste_saved",
			"COALESCE(SUM(points_awarded), 0) AS points_awarded",
		).
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum impact for user %d: %w", userID, err)
	}
	return &totals, nil
}
