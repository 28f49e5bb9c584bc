package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
)

// setupUserTestDB creates an in-memory SQLite database for testing.
func setupUserTestDB(t *testing.T) *DB {
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

func createUserWithPoints(t *testing.T, db *DB, username string, points int, active bool) *models.User {
	t.Helper()

	user := &models.User{Username: username, Points: points, Active: active}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestUserRepository_PersistsExplicitInactive(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	user := createUserWithPoints(t, db, "dormant", 100, false)

	// A column default would make gorm drop the zero value on insert and
	// store the row as active.
	stored, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Active {
		t.Error("Expected user created with Active=false to persist as inactive")
	}

	active, err := repo.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("Expected no active users, got %d", len(active))
	}
}

func TestUserRepository_CountActiveWithMorePoints(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	createUserWithPoints(t, db, "first", 500, true)
	createUserWithPoints(t, db, "second", 300, true)
	createUserWithPoints(t, db, "tied", 300, true)
	createUserWithPoints(t, db, "inactive", 900, false)

	// Ties do not count: only strictly greater totals rank ahead.
	count, err := repo.CountActiveWithMorePoints(300, nil)
	if err != nil {
		t.Fatalf("CountActiveWithMorePoints failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user strictly ahead of 300 points, got %d", count)
	}

	count, err = repo.CountActiveWithMorePoints(500, nil)
	if err != nil {
		t.Fatalf("CountActiveWithMorePoints failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users ahead of the leader, got %d", count)
	}
}

func TestUserRepository_CountActiveWithMorePoints_SinceWindow(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	veteran := createUserWithPoints(t, db, "veteran", 800, true)
	createUserWithPoints(t, db, "newcomer", 400, true)

	// Backdate the veteran's account outside the window.
	old := time.Now().AddDate(0, -2, 0)
	if err := db.Model(veteran).Update("created_at", old).Error; err != nil {
		t.Fatalf("Failed to backdate user: %v", err)
	}

	since := time.Now().AddDate(0, 0, -7)
	count, err := repo.CountActiveWithMorePoints(100, &since)
	if err != nil {
		t.Fatalf("CountActiveWithMorePoints failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected only the newcomer inside the window, got %d", count)
	}
}

func TestUserRepository_ListTopByPoints(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	createUserWithPoints(t, db, "bronze", 100, true)
	createUserWithPoints(t, db, "gold", 900, true)
	createUserWithPoints(t, db, "silver", 500, true)
	createUserWithPoints(t, db, "hidden", 999, false)

	users, err := repo.ListTopByPoints(nil, 0, 10)
	if err != nil {
		t.Fatalf("ListTopByPoints failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("Expected 3 active users, got %d", len(users))
	}

	want := []string{"gold", "silver", "bronze"}
	for i, username := range want {
		if users[i].Username != username {
			t.Errorf("Position %d: expected %q, got %q", i, username, users[i].Username)
		}
	}
}

func TestUserRepository_ListTopByPoints_Paging(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	createUserWithPoints(t, db, "a", 400, true)
	createUserWithPoints(t, db, "b", 300, true)
	createUserWithPoints(t, db, "c", 200, true)

	page, err := repo.ListTopByPoints(nil, 1, 1)
	if err != nil {
		t.Fatalf("ListTopByPoints failed: %v", err)
	}
	if len(page) != 1 || page[0].Username != "b" {
		t.Errorf("Expected second page to hold 'b', got %+v", page)
	}
}

func TestUserRepository_GetForUpdate(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	user := createUserWithPoints(t, db, "locked", 10, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.GetForUpdate(tx, user.ID)
		if err != nil {
			return err
		}
		locked.Points = 25
		return repo.SaveTx(tx, locked)
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	updated, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Points != 25 {
		t.Errorf("Expected 25 points after locked update, got %d", updated.Points)
	}
}
