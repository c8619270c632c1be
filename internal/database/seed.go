package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/repository"
	"github.com/taskhub/taskhub/internal/security"

	"gorm.io/gorm"
)

// SeedReport summarizes what a seed run actually created.
type SeedReport struct {
	CreatedAdmin bool `json:"created_admin"`
	CreatedTasks int  `json:"created_tasks"`
	CreatedTodos int  `json:"created_todos"`
	Noop         bool `json:"noop"`
}

func Seed(db *gorm.DB, bootstrapAdminEmail, bootstrapAdminPassword string, withSampleData bool) error {
	_, err := SeedReporting(db, bootstrapAdminEmail, bootstrapAdminPassword, withSampleData)
	return err
}

func SeedReporting(db *gorm.DB, bootstrapAdminEmail, bootstrapAdminPassword string, withSampleData bool) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}

	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email != "" {
		created, err := seedAdmin(db, email, bootstrapAdminPassword)
		if err != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, err
		}
		report.CreatedAdmin = created
	}

	if withSampleData {
		created, err := seedSampleTasks(db)
		if err != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, err
		}
		report.CreatedTasks = created

		createdTodos, err := seedSampleTodos(db)
		if err != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, err
		}
		report.CreatedTodos = createdTodos
	}

	report.Noop = !report.CreatedAdmin && report.CreatedTasks == 0 && report.CreatedTodos == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}

func seedAdmin(db *gorm.DB, email, password string) (bool, error) {
	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	admin := domain.User{
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		Profile: &domain.Profile{
			FirstName: "Admin",
			LastName:  "User",
		},
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	return true, nil
}

func seedSampleTasks(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&domain.Task{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	samples := []domain.Task{
		{Title: "Review onboarding checklist", DueDate: now.Add(24 * time.Hour), Status: domain.TaskStatusIncomplete},
		{Title: "Prepare sprint demo", DueDate: now.Add(48 * time.Hour), Status: domain.TaskStatusIncomplete},
		{Title: "Update deployment runbook", DueDate: now.Add(72 * time.Hour), Status: domain.TaskStatusIncomplete},
		{Title: "Archive stale branches", DueDate: now.Add(-24 * time.Hour), Status: domain.TaskStatusDone},
	}
	if err := db.Create(&samples).Error; err != nil {
		return 0, err
	}
	return len(samples), nil
}

func seedSampleTodos(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&domain.Todo{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	todos := repository.NewTodoRepository(db)
	samples := []string{
		"Invite the rest of the team",
		"Pick a project avatar",
		"Add your first task",
	}
	for _, text := range samples {
		if err := todos.Create(&domain.Todo{Todo: text}); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}
