package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/taskhub/taskhub/internal/domain"
	"github.com/taskhub/taskhub/internal/observability"
)

type TodoRepository interface {
	Create(todo *domain.Todo) error
	List() ([]domain.Todo, error)
}

type GormTodoRepository struct{ db *gorm.DB }

func NewTodoRepository(db *gorm.DB) TodoRepository { return &GormTodoRepository{db: db} }

func (r *GormTodoRepository) Create(todo *domain.Todo) error {
	if err := r.db.Create(todo).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "todo", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "todo", "create", "success")
	return nil
}

func (r *GormTodoRepository) List() ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := r.db.Order("id DESC").Find(&todos).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "todo", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "todo", "list", "success")
	return todos, nil
}
