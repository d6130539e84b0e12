package models

import (
	"time"
)

type User struct {
	ID                uint64    `gorm:"primarykey" json:"id"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username          string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Name              string    `gorm:"type:varchar(255)" json:"name"`
	PasswordHash      string    `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerified     bool      `gorm:"not null;default:false" json:"email_verified"`
	VerificationToken *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	OwnedProjects []Project       `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
}

// DisplayName returns the name if set, otherwise the username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
