package domain

import "time"

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Profile is the mutable personal-details record owned 1:1 by a User.
// Avatar holds the media-store object key; empty means no avatar is set.
type Profile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName         string    `gorm:"size:255" json:"first_name"`
	LastName          string    `gorm:"size:255" json:"last_name"`
	DateOfBirth       string    `gorm:"size:10" json:"date_of_birth"`
	Gender            string    `gorm:"size:16" json:"gender"`
	TwitterProfile    string    `gorm:"size:1024" json:"twitter_profile"`
	FacebookProfile   string    `gorm:"size:1024" json:"facebook_profile"`
	GooglePlusProfile string    `gorm:"size:1024" json:"google_plus_profile"`
	Avatar            string    `gorm:"size:1024" json:"avatar"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}
