package domain

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Status       string    `gorm:"size:32;not null;default:active;index:idx_users_status" json:"status"`
	PasswordHash string    `gorm:"size:512;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Profile      *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func ValidUserStatus(s string) bool {
	return s == UserStatusActive || s == UserStatusInactive
}
