package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
)

type TaskRepository interface {
	Create(task *domain.Task) error
	Count() (int64, error)
	// RecentIncomplete returns the newest-due incomplete tasks, capped at limit.
	RecentIncomplete(limit int) ([]domain.Task, error)
}

type GormTaskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) TaskRepository { return &GormTaskRepository{db: db} }

func (r *GormTaskRepository) Create(task *domain.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "task", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "task", "create", "success")
	return nil
}

func (r *GormTaskRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&domain.Task{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "task", "count", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "task", "count", "success")
	return total, nil
}

func (r *GormTaskRepository) RecentIncomplete(limit int) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.
		Where("status = ?", domain.TaskStatusIncomplete).
		Order("due_date DESC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "task", "recent_incomplete", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "task", "recent_incomplete", "success")
	return tasks, nil
}
