package domain

import "time"

// Todo is a plain checklist entry, kept separate from Task on purpose:
// tasks carry scheduling state, todos are just text.
type Todo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Todo      string    `gorm:"size:1024;not null" json:"todo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
