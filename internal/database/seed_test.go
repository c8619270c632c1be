package database

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskhub/taskhub/internal/domain"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Profile{}, &domain.Task{}, &domain.Todo{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSeedCreatesBootstrapAdminOnce(t *testing.T) {
	db := newSeedTestDB(t)

	report, err := SeedReporting(db, "Admin@Example.com", "str0ng-password", false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !report.CreatedAdmin {
		t.Fatal("expected admin to be created")
	}

	var admin domain.User
	if err := db.Preload("Profile").Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Status != domain.UserStatusActive {
		t.Fatalf("expected active admin, got %q", admin.Status)
	}
	if admin.PasswordHash == "" || admin.PasswordHash == "str0ng-password" {
		t.Fatal("expected hashed password")
	}
	if admin.Profile == nil {
		t.Fatal("expected admin profile")
	}

	report, err = SeedReporting(db, "admin@example.com", "str0ng-password", false)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if report.CreatedAdmin || !report.Noop {
		t.Fatalf("expected noop on second run, got %+v", report)
	}

	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single user, got %d", count)
	}
}

func TestSeedSampleTasksOnlyWhenEmpty(t *testing.T) {
	db := newSeedTestDB(t)

	report, err := SeedReporting(db, "", "", true)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if report.CreatedTasks == 0 {
		t.Fatal("expected sample tasks")
	}
	if report.CreatedTodos == 0 {
		t.Fatal("expected sample todos")
	}

	report, err = SeedReporting(db, "", "", true)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if report.CreatedTasks != 0 {
		t.Fatalf("expected no new tasks, got %d", report.CreatedTasks)
	}
	if report.CreatedTodos != 0 {
		t.Fatalf("expected no new todos, got %d", report.CreatedTodos)
	}
}
