package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// OrganizationRepository handles organization-related database operations.
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository.
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create creates a new organization.
func (r *OrganizationRepository) Create(org *models.Organization) error {
	if err := r.db.Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get organization by id %d: %w", id, err)
	}
	return &org, nil
}

// Update updates an organization.
func (r *OrganizationRepository) Update(org *models.Organization) error {
	if err := r.db.Save(org).Error; err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return nil
}

// ListOperational retrieves all verified, active organizations.
func (r *OrganizationRepository) ListOperational() ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.
		Where("status = ? AND active = ?", models.OrgStatusVerified, true).
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list operational organizations: %w", err)
	}
	return orgs, nil
}

// GetForUpdate loads an organization row under a FOR UPDATE lock inside tx.
// Capacity reservation and rating updates serialize per organization through
// this lock.
func (r *OrganizationRepository) GetForUpdate(tx *gorm.DB, id uint) (*models.Organization, error) {
	var org models.Organization
	err := lockForUpdate(tx).First(&org, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock organization %d: %w", id, err)
	}
	return &org, nil
}

// SaveTx persists an organization within tx.
func (r *OrganizationRepository) SaveTx(tx *gorm.DB, org *models.Organization) error {
	if err := tx.Save(org).Error; err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}
	return nil
}
