package domain

import "time"

const (
	TaskStatusIncomplete = 0
	TaskStatusDone       = 1
)

type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	DueDate   time.Time `gorm:"index:idx_tasks_due_date" json:"due_date"`
	Status    int       `gorm:"not null;default:0;index:idx_tasks_status" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
