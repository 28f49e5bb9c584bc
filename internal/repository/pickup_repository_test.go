package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// setupPickupTestDB creates an in-memory SQLite database for testing.
func setupPickupTestDB(t *testing.T) *DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	db := &DB{gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return db
}

// createPickupTestFixtures creates a user and an organization.
func createPickupTestFixtures(t *testing.T, db *DB) (*models.User, *models.Organization) {
	t.Helper()

	user := &models.User{Username: "recycler", Active: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	org := &models.Organization{
		Name:           "GreenDrop",
		Status:         models.OrgStatusVerified,
		Active:         true,
		CapacityPerDay: 5,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to create test organization: %v", err)
	}

	return user, org
}

func createTestPickup(t *testing.T, db *DB, userID, orgID uint, date time.Time, status string) *models.Pickup {
	t.Helper()

	pickup := &models.Pickup{
		UserID:         userID,
		OrganizationID: orgID,
		PickupDate:     date,
		Status:         status,
	}
	if err := db.Create(pickup).Error; err != nil {
		t.Fatalf("Failed to create test pickup: %v", err)
	}
	return pickup
}

func TestPickupRepository_CountActiveForDate(t *testing.T) {
	db := setupPickupTestDB(t)
	repo := NewPickupRepository(db)
	user, org := createPickupTestFixtures(t, db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	otherDate := date.AddDate(0, 0, 1)

	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusScheduled)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusConfirmed)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusRescheduled)
	// Terminal pickups release their capacity slot.
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusCancelled)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusCompleted)
	// Other dates never count.
	createTestPickup(t, db, user.ID, org.ID, otherDate, models.PickupStatusScheduled)

	count, err := repo.CountActiveForDate(db.DB, org.ID, date)
	if err != nil {
		t.Fatalf("CountActiveForDate failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 active pickups, got %d", count)
	}
}

func TestPickupRepository_CountOpenForDevice(t *testing.T) {
	db := setupPickupTestDB(t)
	repo := NewPickupRepository(db)
	user, org := createPickupTestFixtures(t, db)

	device := &models.Device{UserID: user.ID, DeviceType: "laptop", Status: models.DeviceStatusUploaded}
	if err := db.Create(device).Error; err != nil {
		t.Fatalf("Failed to create test device: %v", err)
	}

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	count, err := repo.CountOpenForDevice(db.DB, device.ID)
	if err != nil {
		t.Fatalf("CountOpenForDevice failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 open pickups before linking, got %d", count)
	}

	cancelled := createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusCancelled)
	if err := repo.LinkDeviceTx(db.DB, cancelled.ID, device.ID); err != nil {
		t.Fatalf("LinkDeviceTx failed: %v", err)
	}

	count, err = repo.CountOpenForDevice(db.DB, device.ID)
	if err != nil {
		t.Fatalf("CountOpenForDevice failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Cancelled pickup must not count as open, got %d", count)
	}

	open := createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusScheduled)
	if err := repo.LinkDeviceTx(db.DB, open.ID, device.ID); err != nil {
		t.Fatalf("LinkDeviceTx failed: %v", err)
	}

	count, err = repo.CountOpenForDevice(db.DB, device.ID)
	if err != nil {
		t.Fatalf("CountOpenForDevice failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 open pickup, got %d", count)
	}
}

func TestPickupRepository_LinkDeviceTx_RejectsDuplicate(t *testing.T) {
	db := setupPickupTestDB(t)
	repo := NewPickupRepository(db)
	user, org := createPickupTestFixtures(t, db)

	device := &models.Device{UserID: user.ID, DeviceType: "laptop", Status: models.DeviceStatusUploaded}
	if err := db.Create(device).Error; err != nil {
		t.Fatalf("Failed to create test device: %v", err)
	}

	pickup := createTestPickup(t, db, user.ID, org.ID,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), models.PickupStatusScheduled)

	if err := repo.LinkDeviceTx(db.DB, pickup.ID, device.ID); err != nil {
		t.Fatalf("First link failed: %v", err)
	}
	if err := repo.LinkDeviceTx(db.DB, pickup.ID, device.ID); err == nil {
		t.Error("Expected duplicate link to fail, got nil")
	}
}

func TestPickupRepository_CountCompletedByUser(t *testing.T) {
	db := setupPickupTestDB(t)
	repo := NewPickupRepository(db)
	user, org := createPickupTestFixtures(t, db)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusCompleted)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusCompleted)
	createTestPickup(t, db, user.ID, org.ID, date, models.PickupStatusScheduled)

	count, err := repo.CountCompletedByUser(user.ID)
	if err != nil {
		t.Fatalf("CountCompletedByUser failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 completed pickups, got %d", count)
	}
}
