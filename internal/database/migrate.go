package database

import (
	"context"
	"time"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Profile{},
		&domain.Task{},
		&domain.Todo{},
	)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", outcome)
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	return err
}
